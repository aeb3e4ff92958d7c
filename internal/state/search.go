package state

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/brewdeck/internal/brew"
)

// ErrSearchSuperseded is returned when a newer search started before this
// one finished; its results were discarded.
var ErrSearchSuperseded = errors.New("search superseded by a newer query")

// Search runs a name query per source kind concurrently and tags each hit
// with whether it is already installed. A search started while a previous
// one is in flight cancels it, and a result arriving for a superseded query
// is discarded rather than overwriting newer state. Search never mutates
// the authoritative installed lists.
func (s *Synchronizer) Search(ctx context.Context, query string) ([]brew.SearchResult, error) {
	s.mu.Lock()
	if s.searchCancel != nil {
		s.searchCancel()
	}
	sctx, cancel := context.WithCancel(ctx)
	s.searchCancel = cancel
	s.searchGen++
	gen := s.searchGen
	s.mu.Unlock()

	var formulaNames, caskNames []string
	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		var err error
		formulaNames, err = s.brew.Search(gctx, query, brew.SourceFormula)
		return err
	})
	g.Go(func() error {
		var err error
		caskNames, err = s.brew.Search(gctx, query, brew.SourceCask)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.searchGen {
		return nil, ErrSearchSuperseded
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ErrSearchSuperseded
		}
		return nil, err
	}

	results := make([]brew.SearchResult, 0, len(formulaNames)+len(caskNames))
	for _, name := range formulaNames {
		_, installed := s.installedIDs[brew.PackageID(brew.SourceFormula, name)]
		results = append(results, brew.SearchResult{
			Name:        name,
			Source:      brew.SourceFormula,
			IsInstalled: installed,
		})
	}
	for _, name := range caskNames {
		_, installed := s.installedIDs[brew.PackageID(brew.SourceCask, name)]
		results = append(results, brew.SearchResult{
			Name:        name,
			Source:      brew.SourceCask,
			IsInstalled: installed,
		})
	}

	s.searchResults = results
	return results, nil
}
