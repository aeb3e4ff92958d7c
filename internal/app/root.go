// Package app provides the brewdeck command surface. Every command wires
// the synchronization engine the same way the desktop front-end would.
package app

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewdeck/internal/logging"
)

var (
	brewPath  string
	caskFlag  bool
	verbosity int

	// RootCmd is the root command for brewdeck.
	RootCmd = &cobra.Command{
		Use:   "brewdeck",
		Short: "Homebrew state synchronization and dependency-graph engine",
		Long: `brewdeck keeps a consistent snapshot of everything Homebrew (and optionally
the Mac App Store via mas) has installed: packages, outdated sets, taps,
reverse dependencies, leaves and pins. The snapshot is cached on disk for
instant cold starts and tap repositories are health-checked against GitHub.

Examples:
  # Refresh the snapshot
  brewdeck sync

  # What does nothing depend on?
  brewdeck leaves

  # Is my tap still alive upstream?
  brewdeck tap health`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbosity)
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&brewPath, "brew", "", "path to the brew executable (default: auto-detect)")
	RootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	RootCmd.AddCommand(syncCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(outdatedCmd)
	RootCmd.AddCommand(leavesCmd)
	RootCmd.AddCommand(pinnedCmd)
	RootCmd.AddCommand(dependentsCmd)
	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(infoCmd)
	RootCmd.AddCommand(installCmd)
	RootCmd.AddCommand(uninstallCmd)
	RootCmd.AddCommand(upgradeCmd)
	RootCmd.AddCommand(pinCmd)
	RootCmd.AddCommand(unpinCmd)
	RootCmd.AddCommand(tapCmd)
	RootCmd.AddCommand(updateCmd)
	RootCmd.AddCommand(cleanupCmd)
	RootCmd.AddCommand(autoremoveCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
