package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/brewdeck/internal/brew"
)

// newTestChecker points a Checker at a test server and treats example.com
// as the recognized hosting domain.
func newTestChecker(srv *httptest.Server) *Checker {
	c := NewChecker(5 * time.Second)
	c.apiBase = srv.URL
	c.host = "example.com"
	return c
}

func TestIsStaleBoundary(t *testing.T) {
	now := time.Now()

	fresh := TapHealth{Status: StatusHealthy, LastChecked: now}
	assert.False(t, fresh.IsStale(now))
	assert.False(t, fresh.IsStale(now.Add(TTL)))
	assert.True(t, fresh.IsStale(now.Add(TTL+time.Second)))
}

func TestCheckRemoteHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/user/homebrew-tools", r.URL.Path)
		w.Write([]byte(`{"archived": false, "html_url": "https://example.com/user/homebrew-tools"}`))
	}))
	defer srv.Close()

	c := newTestChecker(srv)
	verdict, ok := c.CheckRemote(context.Background(), "https://example.com/user/homebrew-tools")
	require.True(t, ok)
	assert.Equal(t, StatusHealthy, verdict.Status)
	assert.False(t, verdict.LastChecked.IsZero())
}

func TestCheckRemoteArchived(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"archived": true}`))
	}))
	defer srv.Close()

	verdict, ok := newTestChecker(srv).CheckRemote(context.Background(), "https://example.com/user/repo")
	require.True(t, ok)
	assert.Equal(t, StatusArchived, verdict.Status)
}

func TestCheckRemoteMoved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://github.com/newowner/homebrew-newrepo")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer srv.Close()

	verdict, ok := newTestChecker(srv).CheckRemote(context.Background(), "https://example.com/oldowner/homebrew-oldrepo")
	require.True(t, ok)
	assert.Equal(t, StatusMoved, verdict.Status)
	assert.Equal(t, "https://github.com/newowner/homebrew-newrepo", verdict.MovedTo)
	assert.Equal(t, "newowner/newrepo", ReplacementTapName(verdict.MovedTo))
}

func TestCheckRemoteMovedResolvesAPITarget(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Redirect target is itself an API endpoint; the checker must resolve
	// it to the human-facing URL with a second lookup.
	mux.HandleFunc("/repos/old/homebrew-tap", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", srv.URL+"/repositories/42")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("/repositories/42", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"html_url": "https://github.com/new/homebrew-tap"}`))
	})

	verdict, ok := newTestChecker(srv).CheckRemote(context.Background(), "https://example.com/old/homebrew-tap")
	require.True(t, ok)
	assert.Equal(t, StatusMoved, verdict.Status)
	assert.Equal(t, "https://github.com/new/homebrew-tap", verdict.MovedTo)
}

func TestCheckRemoteMovedFallsBackToRawLocation(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/repos/old/tap", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", srv.URL+"/repositories/7")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("/repositories/7", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	verdict, ok := newTestChecker(srv).CheckRemote(context.Background(), "https://example.com/old/tap")
	require.True(t, ok)
	assert.Equal(t, StatusMoved, verdict.Status)
	assert.Equal(t, srv.URL+"/repositories/7", verdict.MovedTo)
}

func TestCheckRemoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	verdict, ok := newTestChecker(srv).CheckRemote(context.Background(), "https://example.com/user/repo")
	require.True(t, ok)
	assert.Equal(t, StatusNotFound, verdict.Status)
}

func TestCheckRemoteRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	verdict, ok := newTestChecker(srv).CheckRemote(context.Background(), "https://example.com/user/repo")
	require.True(t, ok)
	assert.Equal(t, StatusUnknown, verdict.Status)
}

func TestCheckRemoteNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	verdict, ok := newTestChecker(srv).CheckRemote(context.Background(), "https://example.com/user/repo")
	require.True(t, ok)
	assert.Equal(t, StatusUnknown, verdict.Status)
}

func TestCheckRemoteSkipsUnrecognizedRemotes(t *testing.T) {
	c := NewChecker(time.Second)

	_, ok := c.CheckRemote(context.Background(), "https://gitlab.com/user/repo")
	assert.False(t, ok, "non-GitHub remotes are out of scope")

	_, ok = c.CheckRemote(context.Background(), "https://github.com/justowner")
	assert.False(t, ok, "need owner and repo segments")
}

func TestRefreshReusesFreshVerdictsAndPrunes(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"archived": false}`))
	}))
	defer srv.Close()

	c := newTestChecker(srv)
	taps := []brew.Tap{
		{Name: "user/fresh", Remote: "https://example.com/user/homebrew-fresh"},
		{Name: "user/stale", Remote: "https://example.com/user/homebrew-stale"},
	}
	cached := map[string]TapHealth{
		"user/fresh":   {Status: StatusHealthy, LastChecked: time.Now()},
		"user/stale":   {Status: StatusHealthy, LastChecked: time.Now().Add(-25 * time.Hour)},
		"user/removed": {Status: StatusNotFound, LastChecked: time.Now()},
	}

	verdicts, changed := c.Refresh(context.Background(), taps, cached)

	assert.Equal(t, 1, calls, "only the stale verdict is re-queried")
	assert.True(t, changed, "pruned entry makes the pass a change")
	assert.Len(t, verdicts, 2)
	assert.NotContains(t, verdicts, "user/removed")
	assert.Equal(t, cached["user/fresh"], verdicts["user/fresh"])
}

func TestRefreshNoChangeMeansNoWrite(t *testing.T) {
	c := NewChecker(time.Second)
	taps := []brew.Tap{{Name: "user/tap", Remote: "https://github.com/user/homebrew-tap"}}
	fresh := map[string]TapHealth{
		"user/tap": {Status: StatusHealthy, LastChecked: time.Now()},
	}

	verdicts, changed := c.Refresh(context.Background(), taps, fresh)
	assert.False(t, changed)
	assert.Equal(t, fresh, verdicts)
}

func TestReplacementTapName(t *testing.T) {
	assert.Equal(t, "newowner/newrepo", ReplacementTapName("https://github.com/newowner/homebrew-newrepo"))
	assert.Equal(t, "owner/tools", ReplacementTapName("https://github.com/owner/tools"))
	assert.Empty(t, ReplacementTapName("https://github.com/ownly"))
	assert.Empty(t, ReplacementTapName("://bad"))
}
