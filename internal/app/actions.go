package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewdeck/internal/brew"
)

var (
	installCmd = &cobra.Command{
		Use:   "install <package>",
		Short: "Install a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackageAction(cmd, args[0], func(eng *engine, pkg brew.Package) error {
				return eng.sync.Install(cmd.Context(), pkg)
			})
		},
	}

	uninstallCmd = &cobra.Command{
		Use:   "uninstall <package>",
		Short: "Uninstall a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackageAction(cmd, args[0], func(eng *engine, pkg brew.Package) error {
				return eng.sync.Uninstall(cmd.Context(), pkg)
			})
		},
	}

	upgradeCmd = &cobra.Command{
		Use:   "upgrade [package...]",
		Short: "Upgrade packages (everything when no names are given)",
		RunE:  runUpgrade,
	}

	pinCmd = &cobra.Command{
		Use:   "pin <formula>",
		Short: "Pin a formula to its installed version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackageAction(cmd, args[0], func(eng *engine, pkg brew.Package) error {
				return eng.sync.Pin(cmd.Context(), pkg)
			})
		},
	}

	unpinCmd = &cobra.Command{
		Use:   "unpin <formula>",
		Short: "Release a pinned formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackageAction(cmd, args[0], func(eng *engine, pkg brew.Package) error {
				return eng.sync.Unpin(cmd.Context(), pkg)
			})
		},
	}
)

func init() {
	for _, c := range []*cobra.Command{installCmd, uninstallCmd, upgradeCmd} {
		c.Flags().BoolVar(&caskFlag, "cask", false, "treat packages as casks")
	}
}

func runPackageAction(cmd *cobra.Command, name string, action func(*engine, brew.Package) error) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.sync.Sync(cmd.Context()); err != nil {
		return err
	}
	pkg := eng.findPackage(name)
	err = eng.withSpinner(fmt.Sprintf("%s %s", cmd.Name(), pkg.Name), func() error {
		return action(eng, pkg)
	})
	if err != nil {
		return err
	}
	if out := eng.sync.LastOutput(); out != "" {
		fmt.Println(out)
	}
	return nil
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.sync.Sync(cmd.Context()); err != nil {
		return err
	}

	pkgs := make([]brew.Package, 0, len(args))
	for _, name := range args {
		pkgs = append(pkgs, eng.findPackage(name))
	}
	message := "upgrade everything"
	if len(pkgs) > 0 {
		message = fmt.Sprintf("upgrade %d package(s)", len(pkgs))
	}
	err = eng.withSpinner(message, func() error {
		return eng.sync.Upgrade(cmd.Context(), pkgs...)
	})
	if err != nil {
		return err
	}
	if out := eng.sync.LastOutput(); out != "" {
		fmt.Println(out)
	}
	return nil
}
