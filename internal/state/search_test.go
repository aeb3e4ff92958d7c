package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/brewdeck/internal/brew"
)

func TestSearchTagsInstalledResults(t *testing.T) {
	fb := &fakeBrew{
		formulae:       []brew.Package{formula("wget")},
		casks:          []brew.Package{cask("firefox")},
		searchFormulae: []string{"wget", "wget2"},
		searchCasks:    []string{"firefox", "librewolf"},
	}

	s := New(fb, nil, nil, nil, nil)
	require.NoError(t, s.Sync(context.Background()))
	s.WaitBackground()

	results, err := s.Search(context.Background(), "w")
	require.NoError(t, err)
	require.Len(t, results, 4)

	installed := map[string]bool{}
	for _, r := range results {
		installed[string(r.Source)+"/"+r.Name] = r.IsInstalled
	}
	assert.True(t, installed["formula/wget"])
	assert.False(t, installed["formula/wget2"])
	assert.True(t, installed["cask/firefox"])
	assert.False(t, installed["cask/librewolf"])

	// The installed lists themselves are untouched by a search.
	assert.Len(t, s.Formulae(), 1)
	assert.Equal(t, results, s.SearchResults())
}

func TestSearchSupersededByNewerQuery(t *testing.T) {
	fb := &fakeBrew{
		searchFormulae: []string{"hit"},
		slowRelease:    make(chan struct{}),
	}
	s := New(fb, nil, nil, nil, nil)

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "slow")
		firstErr <- err
	}()

	// Let the slow search register its cancel func before racing it.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.searchCancel != nil
	}, 2*time.Second, 10*time.Millisecond)

	results, err := s.Search(context.Background(), "fast")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hit", results[0].Name)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrSearchSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded search never returned")
	}

	// The newer query's results stay applied.
	applied := s.SearchResults()
	require.Len(t, applied, 1)
	assert.Equal(t, "hit", applied[0].Name)
}

func TestSearchProjectionBuildsPackages(t *testing.T) {
	fb := &fakeBrew{searchFormulae: []string{"jq"}}
	s := New(fb, nil, nil, nil, nil)

	_, err := s.Search(context.Background(), "jq")
	require.NoError(t, err)

	pkgs := s.Packages(CategorySearch)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "formula-jq", pkgs[0].ID)
	assert.Equal(t, brew.SourceFormula, pkgs[0].Source)
	assert.False(t, pkgs[0].Installed)
}
