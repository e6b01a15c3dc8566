package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"phonefinder/internal/metrics"
	"phonefinder/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrSearchUnavailable means the catalog could not answer in time. It is
// distinct from a successful search with zero matches.
var ErrSearchUnavailable = errors.New("search unavailable")

// Catalog is the read side of the phone catalog
type Catalog interface {
	Find(ctx context.Context, filter model.Filter, limit int) ([]model.Phone, int, error)
	Get(ctx context.Context, id int64) (*model.Phone, error)
}

// SearchLogger is implemented by catalogs that record searches
type SearchLogger interface {
	LogSearch(ctx context.Context, query string, filter model.Filter, resultCount int, phoneIDs []int64, responseTimeMs int) error
}

// Importer is implemented by catalogs that accept bulk writes
type Importer interface {
	ImportPhones(ctx context.Context, phones []model.Phone) (int, []string)
}

// ImageFinder returns an image reference for a phone name
type ImageFinder interface {
	FindImage(ctx context.Context, name string) (string, error)
}

// SearchConfig tunes the search service
type SearchConfig struct {
	Timeout          time.Duration
	ImageConcurrency int
	Placeholder      string
	DefaultLimit     int
}

// SearchService handles direct search and the catalog step of conversations
type SearchService struct {
	catalog   Catalog
	images    ImageFinder
	extractor *Extractor
	merger    *Merger
	cfg       SearchConfig
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewSearchService creates a new search service; images may be nil
func NewSearchService(
	catalog Catalog,
	images ImageFinder,
	extractor *Extractor,
	merger *Merger,
	cfg SearchConfig,
	m *metrics.Metrics,
	log zerolog.Logger,
) *SearchService {
	if cfg.ImageConcurrency <= 0 {
		cfg.ImageConcurrency = 4
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	return &SearchService{
		catalog:   catalog,
		images:    images,
		extractor: extractor,
		merger:    merger,
		cfg:       cfg,
		metrics:   m,
		log:       log,
	}
}

// SearchEventCallback is called for streaming search events
type SearchEventCallback func(event string, data any) error

// Search runs a single free-text query without any clarification loop.
// An incomplete filter is still submitted to the catalog.
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	return s.SearchStream(ctx, req, nil)
}

// SearchStream is Search reporting progress through callback
func (s *SearchService) SearchStream(ctx context.Context, req *model.SearchRequest, callback SearchEventCallback) (*model.SearchResponse, error) {
	startTime := time.Now()
	emit := func(event string, data any) error {
		if callback == nil {
			return nil
		}
		return callback(event, data)
	}

	filter := s.merger.Merge(model.Filter{}, s.extractor.Extract(req.Query))
	complete := IsComplete(filter)
	if err := emit("filter", map[string]any{"filter": filter, "complete": complete}); err != nil {
		return nil, err
	}

	limit := s.cfg.DefaultLimit
	if req.Options != nil && req.Options.TopK > 0 {
		limit = req.Options.TopK
	}

	if err := emit("searching", map[string]any{"status": "Searching catalog..."}); err != nil {
		return nil, err
	}
	results, total, err := s.Run(ctx, filter, limit, metrics.ModeDirect)
	if err != nil {
		return nil, err
	}

	took := time.Since(startTime).Milliseconds()

	if logger, ok := s.catalog.(SearchLogger); ok {
		phoneIDs := make([]int64, len(results))
		for i, r := range results {
			phoneIDs[i] = r.ID
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
			defer cancel()
			if err := logger.LogSearch(ctx, req.Query, filter, total, phoneIDs, int(took)); err != nil {
				s.log.Warn().Err(err).Msg("failed to log search")
			}
		}()
	}

	return &model.SearchResponse{
		Results:  results,
		Total:    total,
		Filter:   filter,
		Complete: complete,
		Took:     took,
	}, nil
}

// Run looks up a finalized filter and attaches images. Catalog failures and
// timeouts return ErrSearchUnavailable; image failures never fail the search.
func (s *SearchService) Run(ctx context.Context, filter model.Filter, limit int, mode string) ([]model.PhoneResult, int, error) {
	startTime := time.Now()

	findCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		findCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	phones, total, err := s.catalog.Find(findCtx, filter, limit)
	if err == nil {
		err = findCtx.Err()
	}
	if err != nil {
		s.metrics.RecordSearch(mode, "unavailable", time.Since(startTime))
		s.log.Error().Err(err).Str("mode", mode).Msg("catalog lookup failed")
		return nil, 0, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	results := make([]model.PhoneResult, len(phones))
	for i, p := range phones {
		results[i] = model.PhoneResult{Phone: p, MatchedReasons: MatchedReasons(p, filter)}
	}
	s.attachImages(ctx, results)

	s.metrics.RecordSearch(mode, "ok", time.Since(startTime))
	s.log.Info().
		Str("mode", mode).
		Int("total", total).
		Int("returned", len(results)).
		Dur("took", time.Since(startTime)).
		Msg("search completed")
	return results, total, nil
}

// attachImages resolves one image per result with bounded parallelism
func (s *SearchService) attachImages(ctx context.Context, results []model.PhoneResult) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ImageConcurrency)

	for i := range results {
		i := i // per-iteration copy (go 1.22 loopvar semantics)
		g.Go(func() error {
			results[i].Image = s.imageFor(gctx, results[i].Phone)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *SearchService) imageFor(ctx context.Context, p model.Phone) string {
	if p.ImageURL != nil && *p.ImageURL != "" {
		return *p.ImageURL
	}
	if s.images == nil {
		return s.cfg.Placeholder
	}
	url, err := s.images.FindImage(ctx, p.Name())
	if err != nil {
		if !errors.Is(err, ErrImageNotFound) {
			s.log.Debug().Err(err).Str("phone", p.Name()).Msg("image lookup failed")
		}
		return s.cfg.Placeholder
	}
	return url
}

// GetPhone retrieves a single phone by ID
func (s *SearchService) GetPhone(ctx context.Context, id int64) (*model.Phone, error) {
	return s.catalog.Get(ctx, id)
}

// ImportPhones writes phones when the catalog supports it
func (s *SearchService) ImportPhones(ctx context.Context, phones []model.Phone) (*model.PhoneBatchResponse, error) {
	importer, ok := s.catalog.(Importer)
	if !ok {
		return nil, ErrReadOnlyCatalog
	}
	success, errs := importer.ImportPhones(ctx, phones)
	return &model.PhoneBatchResponse{
		Success: success,
		Failed:  len(phones) - success,
		Errors:  errs,
	}, nil
}

// ErrReadOnlyCatalog is returned when the configured catalog cannot be written
var ErrReadOnlyCatalog = errors.New("catalog is read-only")
