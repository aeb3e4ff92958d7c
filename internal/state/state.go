// Package state owns the synchronized package snapshot and its derived
// projections: the installed union, the reverse-dependency map, leaves,
// pinned packages and category views. All source lists change together in
// one batch commit, so every derived view is always a product of the same
// snapshot.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/brewdeck/internal/brew"
	"github.com/blackwell-systems/brewdeck/internal/cache"
	"github.com/blackwell-systems/brewdeck/internal/health"
	"github.com/blackwell-systems/brewdeck/internal/logging"
	"github.com/blackwell-systems/brewdeck/internal/store"
)

// BrewAPI is the brew surface the synchronizer consumes.
type BrewAPI interface {
	Installed(ctx context.Context) (formulae, casks []brew.Package, err error)
	Outdated(ctx context.Context) ([]brew.OutdatedPackage, error)
	Taps(ctx context.Context) ([]brew.Tap, error)
	Search(ctx context.Context, query string, kind brew.SourceKind) ([]string, error)
	Info(ctx context.Context, name string, kind brew.SourceKind) (string, error)
	Install(ctx context.Context, name string, kind brew.SourceKind) (string, error)
	Uninstall(ctx context.Context, name string, kind brew.SourceKind) (string, error)
	Upgrade(ctx context.Context, kind brew.SourceKind, names ...string) (string, error)
	Pin(ctx context.Context, name string) (string, error)
	Unpin(ctx context.Context, name string) (string, error)
	Tap(ctx context.Context, name string) (string, error)
	Untap(ctx context.Context, name string) (string, error)
	Update(ctx context.Context) (string, error)
	Cleanup(ctx context.Context) (string, error)
	Autoremove(ctx context.Context) (string, error)
	Doctor(ctx context.Context) (string, error)
}

// AppStoreAPI is the optional second package source. Implementations report
// Available()=false when the backing tool is absent, which simply yields
// empty results.
type AppStoreAPI interface {
	Available() bool
	List(ctx context.Context) ([]brew.Package, error)
	Outdated(ctx context.Context) ([]brew.OutdatedPackage, error)
	Install(ctx context.Context, storeID string) (string, error)
	Upgrade(ctx context.Context, storeIDs ...string) (string, error)
}

// HealthAPI refreshes tap health verdicts.
type HealthAPI interface {
	Refresh(ctx context.Context, taps []brew.Tap, cached map[string]health.TapHealth) (map[string]health.TapHealth, bool)
}

// Category names a package projection of the snapshot.
type Category string

const (
	CategoryAll      Category = "all"
	CategoryFormulae Category = "formulae"
	CategoryCasks    Category = "casks"
	CategoryApps     Category = "apps"
	CategoryOutdated Category = "outdated"
	CategoryPinned   Category = "pinned"
	CategoryLeaves   Category = "leaves"
	CategorySearch   Category = "search"
)

// Synchronizer orchestrates concurrent fetches, merges them into one
// consistent snapshot and exposes derived read-only views. It is the sole
// owner of the snapshot and the cache files.
type Synchronizer struct {
	brew   BrewAPI
	apps   AppStoreAPI
	health HealthAPI
	cache  *cache.Cache
	info   *store.Store
	log    zerolog.Logger
	now    func() time.Time

	bg sync.WaitGroup

	mu sync.Mutex
	// source lists, only assigned together via commit
	formulae  []brew.Package
	casks     []brew.Package
	storeApps []brew.Package
	outdated  []brew.OutdatedPackage
	taps      []brew.Tap
	syncedAt  time.Time
	// derived projections, recomputed exactly once per commit
	allInstalled   []brew.Package
	installedIDs   map[string]struct{}
	installedNames map[string]string
	reverseDeps    map[string][]brew.Package
	leaves         []brew.Package
	pinned         []brew.Package
	// tap health, owned by the health pass
	tapHealth map[string]health.TapHealth
	// search
	searchGen     int
	searchCancel  context.CancelFunc
	searchResults []brew.SearchResult
	// single-slot last action outcome
	lastOutput string
	lastErr    error
}

// New creates a Synchronizer. apps, checker, fileCache and infoCache may be
// nil; the corresponding concerns are then skipped.
func New(brewAPI BrewAPI, apps AppStoreAPI, checker HealthAPI, fileCache *cache.Cache, infoCache *store.Store) *Synchronizer {
	return &Synchronizer{
		brew:           brewAPI,
		apps:           apps,
		health:         checker,
		cache:          fileCache,
		info:           infoCache,
		log:            logging.GetLogger("state"),
		now:            time.Now,
		installedIDs:   map[string]struct{}{},
		installedNames: map[string]string{},
		reverseDeps:    map[string][]brew.Package{},
		tapHealth:      map[string]health.TapHealth{},
	}
}

// LoadCached restores the persisted snapshot and tap-health map so stale
// data can be shown immediately while a background sync runs. Missing or
// corrupt caches leave the state empty.
func (s *Synchronizer) LoadCached() {
	if s.cache == nil {
		return
	}
	if data, ok := s.cache.LoadPackages(); ok {
		s.commit(data.Formulae, data.Casks, data.Apps, data.Outdated, data.Taps, data.SyncedAt)
	}
	if verdicts, ok := s.cache.LoadTapHealth(); ok {
		s.mu.Lock()
		s.tapHealth = verdicts
		s.mu.Unlock()
	}
}

// Sync performs a full synchronization: all fetches run concurrently, the
// outdated set is merged into the installed lists, and the snapshot is
// replaced in one batch. A failed fetch degrades to an empty list for that
// source; it never aborts the cycle. Cache persistence and the tap health
// pass run in the background after the snapshot is committed.
func (s *Synchronizer) Sync(ctx context.Context) error {
	var (
		formulae, casks, appPkgs  []brew.Package
		brewOutdated, appOutdated []brew.OutdatedPackage
		taps                      []brew.Tap
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		formulae, casks, err = s.brew.Installed(gctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("installed fetch failed")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		brewOutdated, err = s.brew.Outdated(gctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("outdated fetch failed")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		taps, err = s.brew.Taps(gctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("tap fetch failed")
		}
		return nil
	})
	if s.apps != nil && s.apps.Available() {
		g.Go(func() error {
			var err error
			appPkgs, err = s.apps.List(gctx)
			if err != nil {
				s.log.Warn().Err(err).Msg("app store fetch failed")
			}
			return nil
		})
		g.Go(func() error {
			var err error
			appOutdated, err = s.apps.Outdated(gctx)
			if err != nil {
				s.log.Warn().Err(err).Msg("app store outdated fetch failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	outdated := append(append([]brew.OutdatedPackage{}, brewOutdated...), appOutdated...)
	byID := make(map[string]brew.OutdatedPackage, len(outdated))
	for _, od := range outdated {
		byID[od.ID] = od
	}

	formulae = mergeOutdated(formulae, byID)
	casks = mergeOutdated(casks, byID)
	appPkgs = mergeOutdated(appPkgs, byID)

	s.commit(formulae, casks, appPkgs, outdated, taps, s.now())

	snapshot := s.cachedData()
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.persist(snapshot)
		s.refreshTapHealth(context.Background(), snapshot.Taps)
		s.pruneInfoCache(snapshot)
	}()

	return nil
}

// WaitBackground blocks until in-flight cache writes and health passes
// finish. Used on shutdown and in tests.
func (s *Synchronizer) WaitBackground() {
	s.bg.Wait()
}

// mergeOutdated folds outdated records into installed ones by id. Only the
// outdated flag and the latest version come from the outdated record; every
// other field is preserved. Packages without a matching record pass through
// unchanged.
func mergeOutdated(pkgs []brew.Package, byID map[string]brew.OutdatedPackage) []brew.Package {
	if len(pkgs) == 0 {
		return pkgs
	}
	merged := make([]brew.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if od, ok := byID[p.ID]; ok {
			p.Outdated = true
			p.LatestVersion = od.CurrentVersion
		}
		merged = append(merged, p)
	}
	return merged
}

// commit atomically replaces every source list, then recomputes all derived
// projections exactly once. Observers never see a mix of old and new lists.
func (s *Synchronizer) commit(formulae, casks, appPkgs []brew.Package, outdated []brew.OutdatedPackage, taps []brew.Tap, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formulae = formulae
	s.casks = casks
	s.storeApps = appPkgs
	s.outdated = outdated
	s.taps = taps
	s.syncedAt = at
	s.recomputeLocked()
}

// recomputeLocked rebuilds every derived projection from the current source
// lists. Callers hold s.mu.
func (s *Synchronizer) recomputeLocked() {
	union := make([]brew.Package, 0, len(s.formulae)+len(s.casks)+len(s.storeApps))
	union = append(union, s.formulae...)
	union = append(union, s.casks...)
	union = append(union, s.storeApps...)
	s.allInstalled = union

	s.installedIDs = make(map[string]struct{}, len(union))
	s.installedNames = make(map[string]string, len(union))
	for _, p := range union {
		s.installedIDs[p.ID] = struct{}{}
		s.installedNames[p.Name] = p.ID
	}

	// Dependency edges are formula-to-formula; casks and store apps carry
	// no dependency lists.
	s.reverseDeps = make(map[string][]brew.Package)
	for _, p := range union {
		for _, dep := range p.Dependencies {
			s.reverseDeps[dep] = append(s.reverseDeps[dep], p)
		}
	}

	s.leaves = nil
	for _, p := range s.formulae {
		if len(s.reverseDeps[p.Name]) == 0 {
			s.leaves = append(s.leaves, p)
		}
	}

	s.pinned = nil
	for _, p := range union {
		if p.Pinned {
			s.pinned = append(s.pinned, p)
		}
	}
}

// cachedData snapshots the current state into a persistable envelope.
func (s *Synchronizer) cachedData() *cache.CachedData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &cache.CachedData{
		Formulae: append([]brew.Package{}, s.formulae...),
		Casks:    append([]brew.Package{}, s.casks...),
		Apps:     append([]brew.Package{}, s.storeApps...),
		Outdated: append([]brew.OutdatedPackage{}, s.outdated...),
		Taps:     append([]brew.Tap{}, s.taps...),
		SyncedAt: s.syncedAt,
	}
}

// persist writes the snapshot; failures are logged, never raised.
func (s *Synchronizer) persist(data *cache.CachedData) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SavePackages(data); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist package cache")
	}
}

// refreshTapHealth runs one health pass over the given taps and persists
// the verdict map only when it changed.
func (s *Synchronizer) refreshTapHealth(ctx context.Context, taps []brew.Tap) {
	if s.health == nil {
		return
	}

	s.mu.Lock()
	cached := make(map[string]health.TapHealth, len(s.tapHealth))
	for name, v := range s.tapHealth {
		cached[name] = v
	}
	s.mu.Unlock()

	verdicts, changed := s.health.Refresh(ctx, taps, cached)

	s.mu.Lock()
	s.tapHealth = verdicts
	s.mu.Unlock()

	if changed && s.cache != nil {
		if err := s.cache.SaveTapHealth(verdicts); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist tap health cache")
		}
	}
}

// CheckTapHealth runs a synchronous health pass over the current tap list.
func (s *Synchronizer) CheckTapHealth(ctx context.Context) map[string]health.TapHealth {
	s.refreshTapHealth(ctx, s.Taps())
	return s.TapHealth()
}

// pruneInfoCache drops info-cache entries for packages that are gone or
// whose version changed since the blob was captured.
func (s *Synchronizer) pruneInfoCache(data *cache.CachedData) {
	if s.info == nil {
		return
	}
	installed := make(map[string]string)
	collect := func(pkgs []brew.Package) {
		for _, p := range pkgs {
			installed[p.ID] = p.InstalledVersion
		}
	}
	collect(data.Formulae)
	collect(data.Casks)
	collect(data.Apps)
	if err := s.info.Prune(installed); err != nil {
		s.log.Warn().Err(err).Msg("failed to prune info cache")
	}
}

// Info returns the plain-text info blob for a package, served from the
// sqlite cache when the installed version has not changed.
func (s *Synchronizer) Info(ctx context.Context, pkg brew.Package) (string, error) {
	key := pkg.InstalledVersion
	if key == "" {
		key = pkg.Version
	}
	if s.info != nil {
		if text, ok, err := s.info.GetInfo(pkg.ID, key); err == nil && ok {
			return text, nil
		}
	}
	if pkg.Source == brew.SourceApp {
		return pkg.Description, nil
	}
	text, err := s.brew.Info(ctx, pkg.Name, pkg.Source)
	if err != nil {
		return "", err
	}
	if s.info != nil {
		if err := s.info.PutInfo(pkg.ID, key, text); err != nil {
			s.log.Warn().Err(err).Str("package", pkg.ID).Msg("failed to cache info")
		}
	}
	return text, nil
}
