package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewdeck/internal/output"
)

var (
	tapCmd = &cobra.Command{
		Use:   "tap",
		Short: "Manage and inspect taps",
		RunE:  runTapList,
	}

	tapAddCmd = &cobra.Command{
		Use:   "add <owner/repo>",
		Short: "Register a tap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTapAction(cmd, func(eng *engine) error {
				return eng.sync.AddTap(cmd.Context(), args[0])
			})
		},
	}

	tapRemoveCmd = &cobra.Command{
		Use:   "remove <owner/repo>",
		Short: "Remove a tap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTapAction(cmd, func(eng *engine) error {
				return eng.sync.RemoveTap(cmd.Context(), args[0])
			})
		},
	}

	tapMigrateCmd = &cobra.Command{
		Use:   "migrate <old-owner/repo> <new-owner/repo>",
		Short: "Untap a relocated tap and tap its replacement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTapAction(cmd, func(eng *engine) error {
				return eng.sync.MigrateTap(cmd.Context(), args[0], args[1])
			})
		},
	}

	tapHealthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check the upstream repository of each tap",
		RunE:  runTapHealth,
	}
)

func init() {
	tapCmd.AddCommand(tapAddCmd)
	tapCmd.AddCommand(tapRemoveCmd)
	tapCmd.AddCommand(tapMigrateCmd)
	tapCmd.AddCommand(tapHealthCmd)
}

func runTapList(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.sync.Sync(cmd.Context()); err != nil {
		return err
	}

	fmt.Print(output.RenderTapTable(eng.sync.Taps()))
	return nil
}

func runTapAction(cmd *cobra.Command, action func(*engine) error) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := action(eng); err != nil {
		return err
	}
	if out := eng.sync.LastOutput(); out != "" {
		fmt.Println(out)
	}
	return nil
}

func runTapHealth(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.sync.Sync(cmd.Context()); err != nil {
		return err
	}
	eng.sync.WaitBackground()

	fmt.Print(output.RenderTapHealthTable(eng.sync.Taps(), eng.sync.TapHealth()))
	return nil
}
