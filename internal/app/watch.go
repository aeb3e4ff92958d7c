package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewdeck/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Resynchronize automatically when Homebrew's state changes on disk",
	Long: `Watch the Cellar and Caskroom directories and trigger a background
synchronization after changes settle. Useful while installing or removing
packages from another terminal.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := cmd.Context()
	if err := eng.sync.Sync(ctx); err != nil {
		return err
	}

	prefix, err := eng.brew.Prefix(ctx)
	if err != nil {
		return fmt.Errorf("failed to locate Homebrew prefix: %w", err)
	}

	dirs := []string{
		filepath.Join(prefix, "Cellar"),
		filepath.Join(prefix, "Caskroom"),
	}
	w, err := watcher.New(dirs, func() {
		if err := eng.sync.Sync(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "watch: sync failed: %v\n", err)
			return
		}
		fmt.Printf("Resynchronized: %d packages, %d outdated.\n",
			len(eng.sync.All()), len(eng.sync.OutdatedPackages()))
	})
	if err != nil {
		return err
	}
	w.Start()
	defer w.Stop()

	fmt.Printf("Watching %s for changes. Press Ctrl-C to stop.\n", prefix)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	return nil
}
