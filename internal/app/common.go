package app

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/brewdeck/internal/brew"
	"github.com/blackwell-systems/brewdeck/internal/cache"
	"github.com/blackwell-systems/brewdeck/internal/config"
	"github.com/blackwell-systems/brewdeck/internal/health"
	"github.com/blackwell-systems/brewdeck/internal/mas"
	"github.com/blackwell-systems/brewdeck/internal/output"
	"github.com/blackwell-systems/brewdeck/internal/runner"
	"github.com/blackwell-systems/brewdeck/internal/state"
	"github.com/blackwell-systems/brewdeck/internal/store"
)

// engine bundles the wired components behind the CLI commands.
type engine struct {
	cfg  *config.Config
	brew *brew.Client
	sync *state.Synchronizer
	info *store.Store
}

// newEngine builds the full component stack: config, runner, clients,
// caches and the synchronizer, with the persisted snapshot preloaded.
func newEngine() (*engine, error) {
	cfg, err := config.New(brewPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build configuration: %w", err)
	}

	run := runner.New(cfg.CommandTimeout)
	brewClient := brew.NewClient(cfg, run)
	masClient := mas.NewClient(cfg, run)
	checker := health.NewChecker(30 * time.Second)
	fileCache := cache.New(cfg)

	infoCache, err := store.New(cfg.InfoCachePath())
	if err != nil {
		// The info cache is an optimization; run without it.
		infoCache = nil
	}

	sync := state.New(brewClient, masClient, checker, fileCache, infoCache)
	sync.LoadCached()

	return &engine{
		cfg:  cfg,
		brew: brewClient,
		sync: sync,
		info: infoCache,
	}, nil
}

// Close waits for background cache writes and health passes, then releases
// the info cache.
func (e *engine) Close() {
	e.sync.WaitBackground()
	if e.info != nil {
		e.info.Close()
	}
}

// findPackage locates an installed package by name, preferring the kind
// selected by the --cask flag. Unknown names fall back to a fresh record of
// the requested kind so install can target packages not yet installed.
func (e *engine) findPackage(name string) brew.Package {
	kind := brew.SourceFormula
	if caskFlag {
		kind = brew.SourceCask
	}
	for _, p := range e.sync.All() {
		if p.Name == name && p.Source == kind {
			return p
		}
	}
	return brew.Package{
		ID:     brew.PackageID(kind, name),
		Name:   name,
		Source: kind,
	}
}

// printPackages renders a package list as an aligned table.
func printPackages(pkgs []brew.Package) {
	fmt.Print(output.RenderPackageTable(pkgs))
}

// withSpinner runs fn behind a spinner bounded by the command timeout, so
// long external invocations show progress on a terminal.
func (e *engine) withSpinner(message string, fn func() error) error {
	spinner := output.NewSpinner(message).WithTimeout(e.cfg.CommandTimeout)
	spinner.Start()
	err := fn()
	spinner.Stop()
	return err
}
