// Package app wires configuration into the running services. The HTTP
// server and the CLI both start from New.
package app

import (
	"context"
	"errors"
	"fmt"

	"phonefinder/internal/cache"
	"phonefinder/internal/config"
	"phonefinder/internal/logger"
	"phonefinder/internal/metrics"
	"phonefinder/internal/repository"
	"phonefinder/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// App holds the long-lived components built from one Config
type App struct {
	Config     *config.Config
	Vocabulary *config.Vocabulary
	Catalog    service.Catalog
	Search     *service.SearchService
	Controller *service.Controller
	Sessions   *service.SessionStore
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics

	closers []func() error
	log     zerolog.Logger
}

type brandLister interface {
	Brands(ctx context.Context) ([]string, error)
}

// New builds every component. Close must be called when done.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	vocab, err := config.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		return nil, err
	}
	a.Vocabulary = vocab

	if err := a.openCatalog(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if lister, ok := a.Catalog.(brandLister); ok {
		brands, err := lister.Brands(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("could not read catalog brands, using vocabulary only")
		} else {
			vocab.AddBrands(brands...)
		}
	}

	extractor := service.NewExtractor(vocab, logger.Component(log, "extractor"))
	merger := service.NewMerger(vocab)

	a.Search = service.NewSearchService(
		a.Catalog,
		a.imageFinder(),
		extractor,
		merger,
		service.SearchConfig{
			Timeout:          cfg.Search.Timeout,
			ImageConcurrency: cfg.Search.ImageConcurrency,
			Placeholder:      cfg.Image.Placeholder,
			DefaultLimit:     cfg.Search.DefaultLimit,
		},
		a.Metrics,
		logger.Component(log, "search"),
	)

	a.Controller = service.NewController(
		extractor,
		merger,
		a.Search,
		cfg.Conversation.MaxClarifications,
		cfg.Search.DefaultLimit,
		a.Metrics,
		logger.Component(log, "conversation"),
	)
	a.Sessions = service.NewSessionStore(cfg.Conversation.SessionTTL, a.Metrics)

	log.Info().
		Str("catalog", cfg.Catalog.Driver).
		Int("brands", len(vocab.Brands)).
		Strs("tags", vocab.Tags()).
		Bool("images", cfg.Image.Enabled).
		Msg("services initialized")
	return a, nil
}

func (a *App) openCatalog(ctx context.Context) error {
	switch a.Config.Catalog.Driver {
	case config.CatalogPostgres:
		repo, err := repository.NewPostgresRepository(
			a.Config.GetPostgreSQLDSN(),
			a.Config.PostgreSQL.MaxConnections,
			a.Config.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, repo.Close)
		if a.Config.PostgreSQL.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				return err
			}
		}
		a.Catalog = repo
		a.log.Info().Msg("connected to PostgreSQL catalog")
	case config.CatalogCSV:
		c, err := repository.LoadCSVCatalog(a.Config.Catalog.CSVPath, logger.Component(a.log, "catalog"))
		if err != nil {
			return err
		}
		a.Catalog = c
	default:
		return fmt.Errorf("unknown catalog driver %q", a.Config.Catalog.Driver)
	}
	return nil
}

// imageFinder returns nil when image search is disabled
func (a *App) imageFinder() service.ImageFinder {
	if !a.Config.Image.Enabled {
		return nil
	}

	var store cache.Client
	if a.Config.Redis.Addr != "" {
		rc, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
			Prefix:   a.Config.Redis.Prefix,
		})
		if err != nil {
			a.log.Warn().Err(err).Msg("redis unavailable, caching images in memory")
		} else {
			store = rc
		}
	}
	if store == nil {
		store = cache.NewMemoryClient(10000)
	}
	a.closers = append(a.closers, store.Close)

	return service.NewCachedImageFinder(
		service.NewImageSearchClient(a.Config.Image.SearchURL, a.Config.Image.Timeout),
		store,
		a.Config.Image.CacheTTL,
		a.Config.Image.NegativeTTL,
		a.Metrics,
		logger.Component(a.log, "images"),
	)
}

// Close releases connections in reverse order of creation
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
