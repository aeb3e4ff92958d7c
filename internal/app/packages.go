package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewdeck/internal/output"
	"github.com/blackwell-systems/brewdeck/internal/state"
)

var (
	listCategory string

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Long: `List the installed packages of a category. Categories: all, formulae,
casks, apps, outdated, pinned, leaves.`,
		RunE: runList,
	}

	outdatedCmd = &cobra.Command{
		Use:   "outdated",
		Short: "List packages with a newer version available",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCategory(cmd, state.CategoryOutdated)
		},
	}

	leavesCmd = &cobra.Command{
		Use:   "leaves",
		Short: "List formulae no other installed formula depends on",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCategory(cmd, state.CategoryLeaves)
		},
	}

	pinnedCmd = &cobra.Command{
		Use:   "pinned",
		Short: "List pinned packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCategory(cmd, state.CategoryPinned)
		},
	}

	dependentsCmd = &cobra.Command{
		Use:   "dependents <formula>",
		Short: "List installed packages that depend on a formula",
		Args:  cobra.ExactArgs(1),
		RunE:  runDependents,
	}

	searchCmd = &cobra.Command{
		Use:   "search <query>",
		Short: "Search formulae and casks by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	infoCmd = &cobra.Command{
		Use:   "info <package>",
		Short: "Show detailed package information",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
)

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "all", "package category to list")
	infoCmd.Flags().BoolVar(&caskFlag, "cask", false, "treat the package as a cask")
}

func runList(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.sync.Sync(cmd.Context()); err != nil {
		return err
	}
	printPackages(eng.sync.Packages(state.Category(listCategory)))
	return nil
}

func runCategory(cmd *cobra.Command, cat state.Category) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.sync.Sync(cmd.Context()); err != nil {
		return err
	}
	printPackages(eng.sync.Packages(cat))
	return nil
}

func runDependents(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.sync.Sync(cmd.Context()); err != nil {
		return err
	}
	deps := eng.sync.Dependents(args[0])
	if len(deps) == 0 {
		fmt.Printf("Nothing installed depends on %s.\n", args[0])
		return nil
	}
	printPackages(deps)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	// Search tags hits against the installed name set, so refresh first.
	if err := eng.sync.Sync(cmd.Context()); err != nil {
		return err
	}
	results, err := eng.sync.Search(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Print(output.RenderSearchTable(results))
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.sync.Sync(cmd.Context()); err != nil {
		return err
	}
	text, err := eng.sync.Info(cmd.Context(), eng.findPackage(args[0]))
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}
