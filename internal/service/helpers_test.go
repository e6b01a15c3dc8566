package service

import (
	"context"
	"sync"

	"phonefinder/internal/config"
	"phonefinder/internal/model"

	"github.com/rs/zerolog"
)

func newTestExtractor() *Extractor {
	return NewExtractor(config.DefaultVocabulary(), zerolog.Nop())
}

func newTestMerger() *Merger {
	return NewMerger(config.DefaultVocabulary())
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

// fakeSearcher records the filters it was asked to run
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []model.Filter
	results []model.PhoneResult
	err     error
}

func (f *fakeSearcher) Run(_ context.Context, filter model.Filter, _ int, _ string) ([]model.PhoneResult, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filter.Clone())
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.results, len(f.results), nil
}

// fakeCatalog is an in-memory Catalog with optional failure and logging hooks
type fakeCatalog struct {
	phones []model.Phone
	err    error
	block  bool
}

func (c *fakeCatalog) Find(ctx context.Context, filter model.Filter, limit int) ([]model.Phone, int, error) {
	if c.block {
		<-ctx.Done()
		return nil, 0, ctx.Err()
	}
	if c.err != nil {
		return nil, 0, c.err
	}
	var out []model.Phone
	for _, p := range c.phones {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	total := len(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (c *fakeCatalog) Get(_ context.Context, id int64) (*model.Phone, error) {
	for _, p := range c.phones {
		p := p // per-iteration copy (go 1.22 loopvar semantics)
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

type loggedSearch struct {
	query string
	total int
	ids   []int64
}

type loggingCatalog struct {
	fakeCatalog
	logged chan loggedSearch
}

func (c *loggingCatalog) LogSearch(_ context.Context, query string, _ model.Filter, resultCount int, phoneIDs []int64, _ int) error {
	c.logged <- loggedSearch{query: query, total: resultCount, ids: phoneIDs}
	return nil
}

// fakeImages maps names to URLs; unknown names are not found
type fakeImages struct {
	mu    sync.Mutex
	urls  map[string]string
	err   error
	calls int
}

func (f *fakeImages) FindImage(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if u, ok := f.urls[name]; ok {
		return u, nil
	}
	return "", ErrImageNotFound
}
