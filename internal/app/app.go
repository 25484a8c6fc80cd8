// Package app builds the analyser's object graph from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/stage"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
	"github.com/wahid18-maqs/blood-test-analyser/internal/pipeline"
	"github.com/wahid18-maqs/blood-test-analyser/internal/service/analysis"
	"github.com/wahid18-maqs/blood-test-analyser/internal/utils/validator"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/cache"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/history"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/metrics"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/queue"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/storage"
)

type App struct {
	Config    *config.Config
	Logger    logger.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Validator *validator.DocumentValidator
	Storage   storage.Storage
	Extractor document.Extractor
	Cache     cache.Cache
	History   history.Store
	Queue     queue.Queue
	Service   *analysis.AnalysisService

	closers []func() error
}

// OpenHistory opens only the result store, for commands that need nothing else.
func OpenHistory(ctx context.Context, cfg *config.Config) (history.Store, error) {
	return history.Open(ctx, cfg.Database)
}

// New opens every client named in cfg. Close releases them in reverse order.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	a.Validator = validator.NewDocumentValidator(log, validator.ConfigForExtensions(cfg.Upload.MaxFileSize, cfg.Upload.AllowedExtensions))

	if a.Storage, err = storage.NewStorage(ctx, cfg.Storage, log); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if a.Extractor, err = agent.NewExtractor(ctx, cfg.Extractor, log); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.Extractor.Close)

	if a.Cache, err = cache.New(cfg.Cache); err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.closers = append(a.closers, a.Cache.Close)

	if a.History, err = history.Open(ctx, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}
	a.closers = append(a.closers, a.History.Close)

	if cfg.Queue.Enabled {
		q := queue.NewAsynqQueue(cfg.Queue)
		a.Queue = q
		a.closers = append(a.closers, q.Close)
	}

	execs, err := stage.NewExecutors(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{pipeline.WithLogger(log), pipeline.WithObserver(a.Metrics.ObserveStage)}
	pipelines := make(map[models.AnalysisType]*pipeline.Pipeline, 2)
	for _, mode := range []models.AnalysisType{models.AnalysisComprehensive, models.AnalysisSimple} {
		p, err := pipeline.ForMode(mode, execs, opts...)
		if err != nil {
			return nil, err
		}
		pipelines[mode] = p
	}

	deps := analysis.Deps{
		Validator: a.Validator,
		Artifacts: storage.NewArtifactStore(a.Storage, cfg.Upload.MaxFileSize, log),
		Extractor: a.Extractor,
		Cache:     a.Cache,
		History:   a.History,
		Queue:     a.Queue,
		Pipelines: pipelines,
		Metrics:   a.Metrics,
		Logger:    log,
	}
	a.Service, err = analysis.NewService(deps, analysis.ServiceConfig{
		CacheTTL:       cfg.Cache.TTL,
		MaxConcurrent:  cfg.Pipeline.MaxConcurrent,
		ProcessTimeout: cfg.Pipeline.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

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
