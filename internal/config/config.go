// Package config holds the runtime configuration for brewdeck. A Config is
// built once at startup and passed to the components that need it; nothing
// in this package is a process-wide singleton.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// DefaultCommandTimeout bounds every external command invocation. Upgrades
// of large casks can legitimately run for minutes.
const DefaultCommandTimeout = 5 * time.Minute

// wellKnownBrewPaths are the standard Homebrew install locations, checked in
// order when the preferred path is not executable.
var wellKnownBrewPaths = []string{
	"/opt/homebrew/bin/brew",
	"/usr/local/bin/brew",
	"/home/linuxbrew/.linuxbrew/bin/brew",
}

// Config is the runtime configuration shared by the engine's components.
type Config struct {
	// BrewPath is the resolved path of the brew executable.
	BrewPath string

	// MasPath is the path of the optional mas executable. It may point at
	// a binary that does not exist; the App Store source is then disabled.
	MasPath string

	// CacheDir is the application-private directory holding the package
	// and tap-health cache documents plus the info-cache database.
	CacheDir string

	// CommandTimeout bounds external command execution.
	CommandTimeout time.Duration
}

// New builds a Config. preferredBrew may be empty, in which case only the
// well-known locations are consulted.
func New(preferredBrew string) (*Config, error) {
	cacheDir := filepath.Join(xdg.CacheHome, "brewdeck")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, err
	}

	return &Config{
		BrewPath:       ResolveBrewPath(preferredBrew),
		MasPath:        "/usr/local/bin/mas",
		CacheDir:       cacheDir,
		CommandTimeout: DefaultCommandTimeout,
	}, nil
}

// ResolveBrewPath returns the first executable brew path, checking the
// preferred path before the well-known install locations. If nothing is
// executable the preferred path is returned unchanged so that the eventual
// launch failure names the path the user asked for.
func ResolveBrewPath(preferred string) string {
	if preferred != "" && isExecutable(preferred) {
		return preferred
	}
	for _, p := range wellKnownBrewPaths {
		if isExecutable(p) {
			return p
		}
	}
	if preferred != "" {
		return preferred
	}
	return wellKnownBrewPaths[0]
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

// PackageCachePath returns the path of the persisted package snapshot.
func (c *Config) PackageCachePath() string {
	return filepath.Join(c.CacheDir, "packages.json")
}

// TapHealthCachePath returns the path of the persisted tap-health map.
func (c *Config) TapHealthCachePath() string {
	return filepath.Join(c.CacheDir, "tap_health.json")
}

// InfoCachePath returns the path of the sqlite package-info cache.
func (c *Config) InfoCachePath() string {
	return filepath.Join(c.CacheDir, "info_cache.db")
}
