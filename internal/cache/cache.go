// Package cache persists the synchronized snapshot and the tap-health map
// as JSON documents, enabling instant cold-start from stale data.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/brewdeck/internal/brew"
	"github.com/blackwell-systems/brewdeck/internal/config"
	"github.com/blackwell-systems/brewdeck/internal/health"
	"github.com/blackwell-systems/brewdeck/internal/logging"
)

// CachedData is the persisted snapshot envelope. It round-trips through
// JSON losslessly for every documented field.
type CachedData struct {
	Formulae []brew.Package         `json:"formulae"`
	Casks    []brew.Package         `json:"casks"`
	Apps     []brew.Package         `json:"apps"`
	Outdated []brew.OutdatedPackage `json:"outdated"`
	Taps     []brew.Tap             `json:"taps"`
	SyncedAt time.Time              `json:"synced_at"`
}

// Cache reads and writes the two persisted documents. Writes are atomic:
// a complete document is written to a temp file and renamed into place, so
// a reader never observes a partial structure.
type Cache struct {
	packagePath string
	healthPath  string
	log         zerolog.Logger
}

// New creates a Cache over the configured cache directory.
func New(cfg *config.Config) *Cache {
	return &Cache{
		packagePath: cfg.PackageCachePath(),
		healthPath:  cfg.TapHealthCachePath(),
		log:         logging.GetLogger("cache"),
	}
}

// LoadPackages restores the persisted snapshot. A missing or corrupt cache
// is a normal cold start: it returns ok=false and logs, never errors.
func (c *Cache) LoadPackages() (*CachedData, bool) {
	var data CachedData
	if !c.load(c.packagePath, &data) {
		return nil, false
	}
	return &data, true
}

// SavePackages persists the snapshot atomically.
func (c *Cache) SavePackages(data *CachedData) error {
	return c.store(c.packagePath, data)
}

// LoadTapHealth restores the persisted tap-health map.
func (c *Cache) LoadTapHealth() (map[string]health.TapHealth, bool) {
	var verdicts map[string]health.TapHealth
	if !c.load(c.healthPath, &verdicts) {
		return nil, false
	}
	return verdicts, true
}

// SaveTapHealth persists the tap-health map atomically.
func (c *Cache) SaveTapHealth(verdicts map[string]health.TapHealth) error {
	return c.store(c.healthPath, verdicts)
}

func (c *Cache) load(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn().Err(err).Str("path", path).Msg("failed to read cache")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("corrupt cache ignored")
		return false
	}
	return true
}

func (c *Cache) store(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache: %w", err)
	}
	return nil
}
