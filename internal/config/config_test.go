package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeExecutable(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestResolveBrewPathPrefersExecutablePreferred(t *testing.T) {
	preferred := fakeExecutable(t, "brew")
	assert.Equal(t, preferred, ResolveBrewPath(preferred))
}

func TestResolveBrewPathSkipsNonExecutablePreferred(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brew")
	require.NoError(t, os.WriteFile(path, []byte("not runnable"), 0o644))

	resolved := ResolveBrewPath(path)
	if resolved == path {
		// No well-known location exists either: the unusable preferred path
		// comes back unchanged so the eventual launch failure names it.
		return
	}
	assert.Contains(t, wellKnownBrewPaths, resolved)
}

func TestResolveBrewPathMissingPreferredIsReturnedUnchanged(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-brew")
	resolved := ResolveBrewPath(missing)
	if resolved != missing {
		assert.Contains(t, wellKnownBrewPaths, resolved)
	}
}

func TestResolveBrewPathEmptyFallsBackToWellKnown(t *testing.T) {
	resolved := ResolveBrewPath("")
	assert.Contains(t, wellKnownBrewPaths, resolved)
}

func TestCachePathsLiveUnderCacheDir(t *testing.T) {
	cfg := &Config{CacheDir: "/tmp/brewdeck-test"}

	assert.Equal(t, "/tmp/brewdeck-test/packages.json", cfg.PackageCachePath())
	assert.Equal(t, "/tmp/brewdeck-test/tap_health.json", cfg.TapHealthCachePath())
	assert.Equal(t, "/tmp/brewdeck-test/info_cache.db", cfg.InfoCachePath())
}
