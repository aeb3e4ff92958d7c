// Package health classifies the remote repository behind each tap by
// querying the GitHub API, with a TTL-based re-check policy so fresh
// verdicts are never re-fetched.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/brewdeck/internal/brew"
	"github.com/blackwell-systems/brewdeck/internal/logging"
)

// Status is the health verdict for one tap's remote repository.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusArchived Status = "archived"
	StatusMoved    Status = "moved"
	StatusNotFound Status = "not_found"
	StatusUnknown  Status = "unknown"
)

// TTL is the maximum age of a verdict before it must be re-validated.
const TTL = 24 * time.Hour

// TapHealth is the cached verdict for one tap, keyed by tap name in the
// persisted map.
type TapHealth struct {
	Status      Status    `json:"status"`
	MovedTo     string    `json:"moved_to,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// IsStale reports whether the verdict is older than the TTL at the given
// instant. Only stale or absent verdicts are eligible for re-check.
func (h TapHealth) IsStale(now time.Time) bool {
	return now.Sub(h.LastChecked) > TTL
}

// Checker queries the repository-hosting API for tap health.
type Checker struct {
	client  *http.Client
	apiBase string
	host    string
	log     zerolog.Logger
	now     func() time.Time
}

// NewChecker creates a Checker against the public GitHub API. The client
// never follows redirects: a 301 is itself the verdict, so the transport
// must surface it rather than resolve it.
func NewChecker(timeout time.Duration) *Checker {
	return &Checker{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		apiBase: "https://api.github.com",
		host:    "github.com",
		log:     logging.GetLogger("health"),
		now:     time.Now,
	}
}

// repoResponse is the subset of the GitHub repository payload we inspect.
type repoResponse struct {
	Archived bool   `json:"archived"`
	HTMLURL  string `json:"html_url"`
}

// Refresh re-checks the stale or missing verdicts for the given taps and
// prunes verdicts for taps that are no longer installed. It returns the new
// verdict map and whether anything differs from cached (so the caller can
// skip a redundant persist).
func (c *Checker) Refresh(ctx context.Context, taps []brew.Tap, cached map[string]TapHealth) (map[string]TapHealth, bool) {
	now := c.now()
	next := make(map[string]TapHealth, len(taps))

	for _, tap := range taps {
		if existing, ok := cached[tap.Name]; ok && !existing.IsStale(now) {
			next[tap.Name] = existing
			continue
		}
		verdict, ok := c.CheckRemote(ctx, tap.Remote)
		if !ok {
			// Remote is not a recognized repository URL; no verdict.
			continue
		}
		c.log.Debug().
			Str("tap", tap.Name).
			Str("status", string(verdict.Status)).
			Msg("tap health checked")
		next[tap.Name] = verdict
	}

	return next, !equalVerdicts(cached, next)
}

// CheckRemote queries the hosting API for one normalized remote URL. The
// second return value is false when the remote does not match the expected
// hosting pattern; such taps are out of scope, not unknown.
func (c *Checker) CheckRemote(ctx context.Context, remote string) (TapHealth, bool) {
	owner, repo, ok := c.splitRepoURL(remote)
	if !ok {
		return TapHealth{}, false
	}

	verdict := TapHealth{Status: StatusUnknown, LastChecked: c.now()}

	resp, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s", c.apiBase, owner, repo))
	if err != nil {
		c.log.Debug().Err(err).Str("remote", remote).Msg("health lookup failed")
		return verdict, true
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var payload repoResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return verdict, true
		}
		if payload.Archived {
			verdict.Status = StatusArchived
		} else {
			verdict.Status = StatusHealthy
		}
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		verdict.Status = StatusMoved
		verdict.MovedTo = c.resolveMovedTarget(ctx, resp.Header.Get("Location"))
	case resp.StatusCode == http.StatusNotFound:
		verdict.Status = StatusNotFound
	default:
		// 403 rate limiting and everything else: no verdict to draw.
	}

	return verdict, true
}

// resolveMovedTarget turns a redirect Location into a human-facing
// repository URL. API locations need a second lookup for their html_url;
// when that fails the raw location is still better than nothing.
func (c *Checker) resolveMovedTarget(ctx context.Context, location string) string {
	if location == "" {
		return ""
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return location
	}
	if !strings.HasPrefix(parsed.Host, "api.") && !strings.HasPrefix(location, c.apiBase) {
		return location
	}

	resp, err := c.get(ctx, location)
	if err != nil {
		return location
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return location
	}

	var payload repoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.HTMLURL == "" {
		return location
	}
	return payload.HTMLURL
}

func (c *Checker) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "brewdeck")
	return c.client.Do(req)
}

// splitRepoURL extracts owner and repo from a remote URL, requiring the
// recognized host and at least two path segments.
func (c *Checker) splitRepoURL(remote string) (owner, repo string, ok bool) {
	parsed, err := url.Parse(remote)
	if err != nil {
		return "", "", false
	}
	if parsed.Host != c.host {
		return "", "", false
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", "", false
	}
	return segments[0], segments[1], true
}

// ReplacementTapName derives the candidate tap name for a moved repository
// URL, stripping the conventional "homebrew-" repository prefix. Returns ""
// when the URL does not look like a repository.
func ReplacementTapName(movedTo string) string {
	parsed, err := url.Parse(movedTo)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return ""
	}
	repo := strings.TrimPrefix(segments[1], "homebrew-")
	if repo == "" {
		return ""
	}
	return segments[0] + "/" + repo
}

// equalVerdicts compares two verdict maps field by field.
func equalVerdicts(a, b map[string]TapHealth) bool {
	if len(a) != len(b) {
		return false
	}
	for name, av := range a {
		bv, ok := b[name]
		if !ok || av != bv {
			return false
		}
	}
	return true
}
