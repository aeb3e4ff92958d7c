package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewdeck/internal/output"
)

var (
	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the snapshot with the package manager",
		Long: `Fetch installed packages, the outdated set and the tap list concurrently,
merge them into one consistent snapshot, recompute the dependency graph and
persist the result to the cache.`,
		RunE: runSync,
	}

	updateCmd = &cobra.Command{
		Use:   "update",
		Short: "Refresh the package manager's metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaintenance(cmd, "update")
		},
	}

	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale downloads and old package versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaintenance(cmd, "cleanup")
		},
	}

	autoremoveCmd = &cobra.Command{
		Use:   "autoremove",
		Short: "Uninstall dependencies nothing depends on anymore",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaintenance(cmd, "autoremove")
		},
	}

	doctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Run the package manager's self-diagnosis",
		RunE:  runDoctor,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show the package manager's environment report",
		RunE:  runConfig,
	}
)

func runSync(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.sync.Sync(cmd.Context()); err != nil {
		return err
	}
	eng.sync.WaitBackground()

	fmt.Printf("Synchronized %d packages (%d outdated) across %d taps (%s).\n",
		len(eng.sync.All()),
		len(eng.sync.OutdatedPackages()),
		len(eng.sync.Taps()),
		output.FormatRelativeTime(eng.sync.SyncedAt()))
	return nil
}

func runMaintenance(cmd *cobra.Command, verb string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := cmd.Context()
	err = eng.withSpinner("brew "+verb, func() error {
		switch verb {
		case "update":
			return eng.sync.Update(ctx)
		case "cleanup":
			return eng.sync.Cleanup(ctx)
		case "autoremove":
			return eng.sync.Autoremove(ctx)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if out := eng.sync.LastOutput(); out != "" {
		fmt.Println(out)
	}
	return nil
}

func runDoctor(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	out, err := eng.sync.Doctor(cmd.Context())
	if err != nil {
		return err
	}
	if out == "" {
		out = "Your system is ready to brew."
	}
	fmt.Println(out)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	entries, err := eng.brew.Config(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Print(output.RenderConfigTable(entries))
	return nil
}
