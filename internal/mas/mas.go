// Package mas wraps the optional mas command-line tool for Mac App Store
// packages. A missing mas binary is a normal state: fetches yield empty
// results and actions report the tool as unavailable.
package mas

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/brewdeck/internal/brew"
	"github.com/blackwell-systems/brewdeck/internal/config"
	"github.com/blackwell-systems/brewdeck/internal/logging"
	"github.com/blackwell-systems/brewdeck/internal/runner"
)

// ErrUnavailable is returned by actions when the mas binary is not present.
var ErrUnavailable = errors.New("mas is not installed")

// Client wraps the mas executable.
type Client struct {
	run  *runner.Runner
	path string
	log  zerolog.Logger
}

// NewClient creates a Client for the configured mas path.
func NewClient(cfg *config.Config, run *runner.Runner) *Client {
	return &Client{
		run:  run,
		path: cfg.MasPath,
		log:  logging.GetLogger("mas"),
	}
}

// Available reports whether the mas binary exists and is executable.
func (c *Client) Available() bool {
	info, err := os.Stat(c.path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

// List returns the installed App Store packages, or an empty list when mas
// is absent.
func (c *Client) List(ctx context.Context) ([]brew.Package, error) {
	if !c.Available() {
		return nil, nil
	}
	res := c.run.Run(ctx, c.path, "list")
	if !res.Success {
		return nil, fmt.Errorf("mas list failed: %s", res.Output)
	}
	return ParseList(res.Output), nil
}

// Outdated returns the outdated App Store packages, or an empty list when
// mas is absent.
func (c *Client) Outdated(ctx context.Context) ([]brew.OutdatedPackage, error) {
	if !c.Available() {
		return nil, nil
	}
	res := c.run.Run(ctx, c.path, "outdated")
	if !res.Success {
		return nil, fmt.Errorf("mas outdated failed: %s", res.Output)
	}
	return ParseOutdated(res.Output), nil
}

// Install installs the App Store package with the given store id.
func (c *Client) Install(ctx context.Context, storeID string) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}
	res := c.run.Run(ctx, c.path, "install", storeID)
	if !res.Success {
		return res.Output, fmt.Errorf("mas install failed: %s", res.Output)
	}
	return res.Output, nil
}

// Upgrade upgrades the given store ids, or everything when none are given.
func (c *Client) Upgrade(ctx context.Context, storeIDs ...string) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}
	args := append([]string{"upgrade"}, storeIDs...)
	res := c.run.Run(ctx, c.path, args...)
	if !res.Success {
		return res.Output, fmt.Errorf("mas upgrade failed: %s", res.Output)
	}
	return res.Output, nil
}

// ParseList parses `mas list` lines of the form
//
//	497799835 Xcode (15.2)
//
// Lines whose id token is not numeric are skipped; a missing version
// degrades to the unknown sentinel.
func ParseList(output string) []brew.Package {
	var packages []brew.Package
	for _, line := range strings.Split(output, "\n") {
		id, name, version, ok := splitEntry(line)
		if !ok {
			continue
		}
		packages = append(packages, brew.Package{
			ID:                 brew.PackageID(brew.SourceApp, name),
			Name:               name,
			Version:            version,
			InstalledVersion:   version,
			Installed:          true,
			Source:             brew.SourceApp,
			InstalledOnRequest: true,
			StoreID:            id,
			Dependencies:       []string{},
		})
	}
	return packages
}

// ParseOutdated parses `mas outdated` lines of the form
//
//	497799835 Xcode (15.2 -> 15.3)
//
// Entries without both versions are dropped.
func ParseOutdated(output string) []brew.OutdatedPackage {
	var packages []brew.OutdatedPackage
	for _, line := range strings.Split(output, "\n") {
		_, name, versions, ok := splitEntry(line)
		if !ok {
			continue
		}
		old, current, found := strings.Cut(versions, "->")
		if !found {
			continue
		}
		old = strings.TrimSpace(old)
		current = strings.TrimSpace(current)
		if old == "" || current == "" {
			continue
		}
		if !brew.VersionNewer(current, old) {
			continue
		}
		packages = append(packages, brew.OutdatedPackage{
			ID:               brew.PackageID(brew.SourceApp, name),
			Name:             name,
			InstalledVersion: old,
			CurrentVersion:   current,
			Source:           brew.SourceApp,
		})
	}
	return packages
}

// splitEntry tokenizes one `<id> <name> (<version...>)` line. The name may
// contain spaces, so the version is taken from the last parenthesized group.
func splitEntry(line string) (id, name, version string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", "", false
	}

	idTok, rest, found := strings.Cut(line, " ")
	if !found {
		return "", "", "", false
	}
	if _, err := strconv.ParseUint(idTok, 10, 64); err != nil {
		return "", "", "", false
	}

	open := strings.LastIndex(rest, "(")
	closing := strings.LastIndex(rest, ")")
	if open < 0 || closing < open {
		name = strings.TrimSpace(rest)
		if name == "" {
			return "", "", "", false
		}
		return idTok, name, brew.VersionUnknown, true
	}

	name = strings.TrimSpace(rest[:open])
	version = strings.TrimSpace(rest[open+1 : closing])
	if name == "" {
		return "", "", "", false
	}
	if version == "" {
		version = brew.VersionUnknown
	}
	return idTok, name, version, true
}
