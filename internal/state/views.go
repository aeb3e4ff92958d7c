package state

import (
	"time"

	"github.com/blackwell-systems/brewdeck/internal/brew"
	"github.com/blackwell-systems/brewdeck/internal/health"
)

// All returns the union of every installed package across sources.
func (s *Synchronizer) All() []brew.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]brew.Package{}, s.allInstalled...)
}

// Formulae returns the installed formulae.
func (s *Synchronizer) Formulae() []brew.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]brew.Package{}, s.formulae...)
}

// Casks returns the installed casks.
func (s *Synchronizer) Casks() []brew.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]brew.Package{}, s.casks...)
}

// Apps returns the installed App Store packages.
func (s *Synchronizer) Apps() []brew.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]brew.Package{}, s.storeApps...)
}

// OutdatedPackages returns the installed packages currently flagged
// outdated, across all sources.
func (s *Synchronizer) OutdatedPackages() []brew.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []brew.Package
	for _, p := range s.allInstalled {
		if p.Outdated {
			out = append(out, p)
		}
	}
	return out
}

// Taps returns the installed taps.
func (s *Synchronizer) Taps() []brew.Tap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]brew.Tap{}, s.taps...)
}

// Leaves returns the installed formulae no other installed formula depends
// on. Non-formula sources are excluded by definition.
func (s *Synchronizer) Leaves() []brew.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]brew.Package{}, s.leaves...)
}

// Pinned returns the pinned packages of any source.
func (s *Synchronizer) Pinned() []brew.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]brew.Package{}, s.pinned...)
}

// Dependents returns the installed packages that directly depend on the
// named package. An unknown name yields an empty list, not an error.
func (s *Synchronizer) Dependents(name string) []brew.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]brew.Package{}, s.reverseDeps[name]...)
}

// IsInstalled reports whether a package of the given kind and name is part
// of the current snapshot.
func (s *Synchronizer) IsInstalled(kind brew.SourceKind, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.installedIDs[brew.PackageID(kind, name)]
	return ok
}

// InstalledNames returns the name → package-id lookup of the snapshot.
func (s *Synchronizer) InstalledNames() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[string]string, len(s.installedNames))
	for name, id := range s.installedNames {
		names[name] = id
	}
	return names
}

// SyncedAt returns the timestamp of the last committed synchronization.
func (s *Synchronizer) SyncedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncedAt
}

// TapHealth returns the current tap-health verdict map.
func (s *Synchronizer) TapHealth() map[string]health.TapHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	verdicts := make(map[string]health.TapHealth, len(s.tapHealth))
	for name, v := range s.tapHealth {
		verdicts[name] = v
	}
	return verdicts
}

// SearchResults returns the most recent applied search results.
func (s *Synchronizer) SearchResults() []brew.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]brew.SearchResult{}, s.searchResults...)
}

// LastOutput returns the output of the most recent action.
func (s *Synchronizer) LastOutput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutput
}

// LastError returns the most recent action failure. It is a single slot:
// the next successful action clears it.
func (s *Synchronizer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Packages maps a category to its package projection. Categories that are
// not package collections yield an empty list.
func (s *Synchronizer) Packages(cat Category) []brew.Package {
	switch cat {
	case CategoryAll:
		return s.All()
	case CategoryFormulae:
		return s.Formulae()
	case CategoryCasks:
		return s.Casks()
	case CategoryApps:
		return s.Apps()
	case CategoryOutdated:
		return s.OutdatedPackages()
	case CategoryPinned:
		return s.Pinned()
	case CategoryLeaves:
		return s.Leaves()
	case CategorySearch:
		s.mu.Lock()
		defer s.mu.Unlock()
		var pkgs []brew.Package
		for _, r := range s.searchResults {
			pkgs = append(pkgs, brew.Package{
				ID:        brew.PackageID(r.Source, r.Name),
				Name:      r.Name,
				Source:    r.Source,
				Installed: r.IsInstalled,
			})
		}
		return pkgs
	default:
		return []brew.Package{}
	}
}
