package brew

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/brewdeck/internal/config"
	"github.com/blackwell-systems/brewdeck/internal/logging"
	"github.com/blackwell-systems/brewdeck/internal/runner"
)

// Failure classes for brew invocations.
var (
	ErrCommandFailed  = errors.New("brew command failed")
	ErrCommandTimeout = errors.New("brew command timed out")
	ErrParseFailed    = errors.New("brew output parse failed")
)

// Client wraps the brew executable. All fetch methods are read-only brew
// queries; action methods trigger side effects and return brew's output as
// the user-facing message.
type Client struct {
	run      *runner.Runner
	brewPath string
	log      zerolog.Logger
}

// NewClient creates a Client using the resolved brew path from cfg.
func NewClient(cfg *config.Config, run *runner.Runner) *Client {
	return &Client{
		run:      run,
		brewPath: cfg.BrewPath,
		log:      logging.GetLogger("brew"),
	}
}

// command runs brew with args and returns its output, classifying failures.
func (c *Client) command(ctx context.Context, args ...string) (string, error) {
	res := c.run.Run(ctx, c.brewPath, args...)
	if res.TimedOut {
		return res.Output, fmt.Errorf("%w: brew %s", ErrCommandTimeout, strings.Join(args, " "))
	}
	if !res.Success {
		return res.Output, fmt.Errorf("%w: brew %s: %s", ErrCommandFailed, strings.Join(args, " "), res.Output)
	}
	return res.Output, nil
}

// Installed fetches every installed formula and cask in one call.
func (c *Client) Installed(ctx context.Context) (formulae, casks []Package, err error) {
	out, err := c.command(ctx, "info", "--json=v2", "--installed")
	if err != nil {
		return nil, nil, err
	}
	formulae, casks, err = ParseInstalled([]byte(out))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return formulae, casks, nil
}

// Outdated fetches the outdated set for formulae and casks. Entries whose
// reported current version is not actually newer than the installed one are
// dropped as noise.
func (c *Client) Outdated(ctx context.Context) ([]OutdatedPackage, error) {
	out, err := c.command(ctx, "outdated", "--json=v2")
	if err != nil {
		return nil, err
	}
	entries, err := ParseOutdated([]byte(out))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	result := entries[:0]
	for _, e := range entries {
		if VersionNewer(e.CurrentVersion, e.InstalledVersion) {
			result = append(result, e)
		}
	}
	return result, nil
}

// Taps fetches all installed taps with their remotes and provided packages.
func (c *Client) Taps(ctx context.Context) ([]Tap, error) {
	out, err := c.command(ctx, "tap-info", "--installed", "--json")
	if err != nil {
		return nil, err
	}
	taps, err := ParseTaps([]byte(out))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return taps, nil
}

// Search runs a name-only search for the given source kind.
func (c *Client) Search(ctx context.Context, query string, kind SourceKind) ([]string, error) {
	flag := "--formula"
	if kind == SourceCask {
		flag = "--cask"
	}
	out, err := c.command(ctx, "search", flag, query)
	if err != nil {
		// brew search exits nonzero when nothing matches; an empty
		// result is not a failure for the caller.
		if strings.Contains(out, "No formulae or casks found") {
			return nil, nil
		}
		return nil, err
	}
	return ParseSearch(out), nil
}

// Info returns the plain-text info blob for one package.
func (c *Client) Info(ctx context.Context, name string, kind SourceKind) (string, error) {
	return c.command(ctx, kindArgs(kind, "info", name)...)
}

// Install installs a package, adding the cask flag for cask targets.
func (c *Client) Install(ctx context.Context, name string, kind SourceKind) (string, error) {
	return c.command(ctx, kindArgs(kind, "install", name)...)
}

// Uninstall removes a package.
func (c *Client) Uninstall(ctx context.Context, name string, kind SourceKind) (string, error) {
	return c.command(ctx, kindArgs(kind, "uninstall", name)...)
}

// Upgrade upgrades the named packages of one source kind; with no names it
// upgrades everything brew manages.
func (c *Client) Upgrade(ctx context.Context, kind SourceKind, names ...string) (string, error) {
	return c.command(ctx, kindArgs(kind, "upgrade", names...)...)
}

// Pin pins a formula to its installed version.
func (c *Client) Pin(ctx context.Context, name string) (string, error) {
	return c.command(ctx, "pin", name)
}

// Unpin releases a pinned formula.
func (c *Client) Unpin(ctx context.Context, name string) (string, error) {
	return c.command(ctx, "unpin", name)
}

// Tap registers a tap.
func (c *Client) Tap(ctx context.Context, name string) (string, error) {
	return c.command(ctx, "tap", name)
}

// Untap removes a tap.
func (c *Client) Untap(ctx context.Context, name string) (string, error) {
	return c.command(ctx, "untap", name)
}

// Update refreshes brew's own package metadata.
func (c *Client) Update(ctx context.Context) (string, error) {
	return c.command(ctx, "update")
}

// Cleanup removes stale downloads and old package versions.
func (c *Client) Cleanup(ctx context.Context) (string, error) {
	return c.command(ctx, "cleanup")
}

// Autoremove uninstalls dependencies nothing depends on anymore.
func (c *Client) Autoremove(ctx context.Context) (string, error) {
	return c.command(ctx, "autoremove")
}

// Doctor runs brew's self-diagnosis. A nonzero exit is normal when issues
// are found; the output is the diagnosis either way.
func (c *Client) Doctor(ctx context.Context) (string, error) {
	out, err := c.command(ctx, "doctor")
	if errors.Is(err, ErrCommandFailed) && out != "" {
		return out, nil
	}
	return out, err
}

// Config returns brew's environment report as ordered key/value entries.
func (c *Client) Config(ctx context.Context) ([]ConfigEntry, error) {
	out, err := c.command(ctx, "config")
	if err != nil {
		return nil, err
	}
	return ParseConfig(out), nil
}

// CachePath returns brew's download cache directory.
func (c *Client) CachePath(ctx context.Context) (string, error) {
	out, err := c.command(ctx, "--cache")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Prefix returns the Homebrew installation prefix.
func (c *Client) Prefix(ctx context.Context) (string, error) {
	out, err := c.command(ctx, "--prefix")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// kindArgs builds an argument vector, inserting the cask flag when the
// target is a non-default source.
func kindArgs(kind SourceKind, verb string, names ...string) []string {
	args := []string{verb}
	if kind == SourceCask {
		args = append(args, "--cask")
	}
	return append(args, names...)
}
