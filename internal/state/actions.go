package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/brewdeck/internal/brew"
)

// ErrAppStoreUnavailable is returned for App-Store-kind actions when the
// backing tool is absent.
var ErrAppStoreUnavailable = errors.New("app store source is unavailable")

// setOutcome records an action's result in the single-slot output/error
// fields. A success overwrites and thereby clears the previous error.
func (s *Synchronizer) setOutcome(output string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOutput = output
	s.lastErr = err
}

// runAction executes one external action, records its outcome, and triggers
// a full synchronization so derived state reflects the side effect. The
// resync runs even after a failure: partially applied effects must still be
// observed.
func (s *Synchronizer) runAction(ctx context.Context, fn func(context.Context) (string, error)) error {
	out, err := fn(ctx)
	s.setOutcome(out, err)
	if syncErr := s.Sync(ctx); syncErr != nil {
		s.log.Warn().Err(syncErr).Msg("post-action sync failed")
	}
	return err
}

// Install installs one package through its source's tool.
func (s *Synchronizer) Install(ctx context.Context, pkg brew.Package) error {
	return s.runAction(ctx, func(ctx context.Context) (string, error) {
		if pkg.Source == brew.SourceApp {
			if s.apps == nil || !s.apps.Available() {
				return "", ErrAppStoreUnavailable
			}
			return s.apps.Install(ctx, pkg.StoreID)
		}
		return s.brew.Install(ctx, pkg.Name, pkg.Source)
	})
}

// Uninstall removes one package. App Store packages cannot be uninstalled
// through mas; that remains a manual action.
func (s *Synchronizer) Uninstall(ctx context.Context, pkg brew.Package) error {
	return s.runAction(ctx, func(ctx context.Context) (string, error) {
		if pkg.Source == brew.SourceApp {
			return "", fmt.Errorf("%s must be removed through the App Store", pkg.Name)
		}
		return s.brew.Uninstall(ctx, pkg.Name, pkg.Source)
	})
}

// Upgrade upgrades the given packages, partitioned by source kind with one
// invocation per kind. With no packages it upgrades everything: brew's
// whole estate plus all outdated App Store packages.
func (s *Synchronizer) Upgrade(ctx context.Context, pkgs ...brew.Package) error {
	return s.runAction(ctx, func(ctx context.Context) (string, error) {
		if len(pkgs) == 0 {
			return s.upgradeAll(ctx)
		}

		byKind := make(map[brew.SourceKind][]brew.Package)
		for _, p := range pkgs {
			byKind[p.Source] = append(byKind[p.Source], p)
		}

		var outputs []string
		var errs []error
		for _, kind := range []brew.SourceKind{brew.SourceFormula, brew.SourceCask} {
			targets := byKind[kind]
			if len(targets) == 0 {
				continue
			}
			names := make([]string, len(targets))
			for i, p := range targets {
				names[i] = p.Name
			}
			out, err := s.brew.Upgrade(ctx, kind, names...)
			outputs = append(outputs, out)
			errs = append(errs, err)
		}
		if targets := byKind[brew.SourceApp]; len(targets) > 0 {
			if s.apps == nil || !s.apps.Available() {
				errs = append(errs, ErrAppStoreUnavailable)
			} else {
				ids := make([]string, len(targets))
				for i, p := range targets {
					ids[i] = p.StoreID
				}
				out, err := s.apps.Upgrade(ctx, ids...)
				outputs = append(outputs, out)
				errs = append(errs, err)
			}
		}
		return strings.Join(outputs, "\n"), errors.Join(errs...)
	})
}

func (s *Synchronizer) upgradeAll(ctx context.Context) (string, error) {
	var outputs []string
	var errs []error

	out, err := s.brew.Upgrade(ctx, brew.SourceFormula)
	outputs = append(outputs, out)
	errs = append(errs, err)

	if s.apps != nil && s.apps.Available() {
		out, err := s.apps.Upgrade(ctx)
		outputs = append(outputs, out)
		errs = append(errs, err)
	}
	return strings.Join(outputs, "\n"), errors.Join(errs...)
}

// Pin pins a formula to its installed version.
func (s *Synchronizer) Pin(ctx context.Context, pkg brew.Package) error {
	return s.runAction(ctx, func(ctx context.Context) (string, error) {
		if pkg.Source != brew.SourceFormula {
			return "", fmt.Errorf("only formulae can be pinned, %s is a %s", pkg.Name, pkg.Source)
		}
		return s.brew.Pin(ctx, pkg.Name)
	})
}

// Unpin releases a pinned formula.
func (s *Synchronizer) Unpin(ctx context.Context, pkg brew.Package) error {
	return s.runAction(ctx, func(ctx context.Context) (string, error) {
		if pkg.Source != brew.SourceFormula {
			return "", fmt.Errorf("only formulae can be unpinned, %s is a %s", pkg.Name, pkg.Source)
		}
		return s.brew.Unpin(ctx, pkg.Name)
	})
}

// AddTap registers a tap.
func (s *Synchronizer) AddTap(ctx context.Context, name string) error {
	return s.runAction(ctx, func(ctx context.Context) (string, error) {
		return s.brew.Tap(ctx, name)
	})
}

// RemoveTap removes a tap.
func (s *Synchronizer) RemoveTap(ctx context.Context, name string) error {
	return s.runAction(ctx, func(ctx context.Context) (string, error) {
		return s.brew.Untap(ctx, name)
	})
}

// MigrateTap moves from a relocated tap to its replacement: untap the old
// name, tap the new one. The replacement name typically comes from
// health.ReplacementTapName.
func (s *Synchronizer) MigrateTap(ctx context.Context, oldName, newName string) error {
	return s.runAction(ctx, func(ctx context.Context) (string, error) {
		untapOut, err := s.brew.Untap(ctx, oldName)
		if err != nil {
			return untapOut, err
		}
		tapOut, err := s.brew.Tap(ctx, newName)
		return strings.TrimSpace(untapOut + "\n" + tapOut), err
	})
}

// Update refreshes the package manager's metadata.
func (s *Synchronizer) Update(ctx context.Context) error {
	return s.runAction(ctx, s.brew.Update)
}

// Cleanup removes stale downloads and old versions.
func (s *Synchronizer) Cleanup(ctx context.Context) error {
	return s.runAction(ctx, s.brew.Cleanup)
}

// Autoremove uninstalls orphaned dependencies.
func (s *Synchronizer) Autoremove(ctx context.Context) error {
	return s.runAction(ctx, s.brew.Autoremove)
}

// Doctor runs the package manager's self-diagnosis and returns its report.
// Doctor has no side effects on package state, so no resync is triggered.
func (s *Synchronizer) Doctor(ctx context.Context) (string, error) {
	out, err := s.brew.Doctor(ctx)
	s.setOutcome(out, err)
	return out, err
}
