package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
	"github.com/wahid18-maqs/blood-test-analyser/internal/pipeline"
	"github.com/wahid18-maqs/blood-test-analyser/internal/utils/validator"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/cache"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/converters"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/history"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/metrics"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/queue"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/storage"
)

const (
	MaxHistoryLimit     = 100
	DefaultHistoryLimit = 20
)

type ServiceConfig struct {
	CacheTTL       time.Duration
	MaxConcurrent  int
	ProcessTimeout time.Duration
}

// Deps are the collaborators the service is built from. Queue may be nil,
// in which case failed history writes are only logged.
type Deps struct {
	Validator *validator.DocumentValidator
	Artifacts *storage.ArtifactStore
	Extractor document.Extractor
	Cache     cache.Cache
	History   history.Store
	Queue     queue.Queue
	Pipelines map[models.AnalysisType]*pipeline.Pipeline
	Metrics   *metrics.Metrics
	Logger    logger.Logger
}

type AnalysisService struct {
	deps      Deps
	config    ServiceConfig
	converter *converters.ResponseConverter
	slots     *semaphore.Weighted
	flights   singleflight.Group
	inflight  sync.WaitGroup
}

func NewService(deps Deps, cfg ServiceConfig) (*AnalysisService, error) {
	if deps.Validator == nil || deps.Artifacts == nil || deps.Extractor == nil || deps.History == nil {
		return nil, fmt.Errorf("validator, artifacts, extractor and history are required")
	}
	for _, mode := range []models.AnalysisType{models.AnalysisComprehensive, models.AnalysisSimple} {
		if deps.Pipelines[mode] == nil {
			return nil, fmt.Errorf("no pipeline for %s analysis", mode)
		}
	}
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 10 * time.Minute
	}

	return &AnalysisService{
		deps:      deps,
		config:    cfg,
		converter: converters.NewResponseConverter(),
		slots:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}, nil
}

func (s *AnalysisService) Analyze(ctx context.Context, req Request) ([]byte, error) {
	log := logger.FromContext(ctx, s.deps.Logger)

	if !req.Mode.Valid() {
		return nil, fmt.Errorf("unknown analysis type %q", req.Mode)
	}
	if _, err := s.deps.Validator.ValidateContent(req.FileName, req.Content); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = defaultQuery(req.Mode)
	}
	key := cache.Key(string(req.Mode), cache.ComputeFingerprint(req.Content, query))

	if body, ok := s.lookup(ctx, log, key); ok {
		return body, nil
	}

	run := func() (interface{}, error) {
		return s.process(ctx, key, req, query)
	}
	// Each caller holds the wait group until its flight finishes, even after leaving early.
	s.inflight.Add(1)
	ch := s.flights.DoChan(key, run)
	select {
	case res := <-ch:
		s.inflight.Done()
		if res.Shared {
			s.deps.Metrics.CoalescedRequests.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		go func() {
			<-ch
			s.inflight.Done()
		}()
		return nil, ctx.Err()
	}
}

// Wait blocks until every started analysis has finished, including ones whose
// callers have gone away, or until ctx is done.
func (s *AnalysisService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AnalysisService) lookup(ctx context.Context, log logger.Logger, key string) ([]byte, bool) {
	body, ok, err := s.deps.Cache.Get(ctx, key)
	switch {
	case err != nil:
		s.deps.Metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warn("Cache unavailable, treating as miss", logger.Error(err))
		return nil, false
	case ok:
		s.deps.Metrics.CacheLookups.WithLabelValues("hit").Inc()
		log.Info("Serving analysis from cache", logger.String("cache_key", key))
		return body, true
	default:
		s.deps.Metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
}

// process runs once per cache key at a time. It is detached from the caller's
// cancellation so a departed leader still cleans up its artifact.
func (s *AnalysisService) process(parent context.Context, key string, req Request, query string) ([]byte, error) {
	fileName := storage.SanitizeName(req.FileName)
	log := logger.FromContext(parent, s.deps.Logger).With(
		logger.String("analysis_type", string(req.Mode)),
		logger.String("file", fileName),
	)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.config.ProcessTimeout)
	defer cancel()

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire pipeline slot: %w", err)
	}
	defer s.slots.Release(1)

	artifact, err := s.deps.Artifacts.Put(ctx, req.Content, req.FileName, artifactPrefix(req.Mode))
	if err != nil {
		if errors.Is(err, storage.ErrArtifactTooLarge) {
			return nil, s.deps.Validator.TooLarge()
		}
		return nil, err
	}
	defer func() {
		if err := s.deps.Artifacts.Delete(context.WithoutCancel(ctx), artifact); err != nil {
			log.Warn("Failed to delete artifact",
				logger.String("key", artifact.StoragePath),
				logger.Error(err),
			)
		}
	}()

	text, err := s.extract(ctx, artifact)
	if err != nil {
		s.deps.Metrics.PipelineRuns.WithLabelValues(string(req.Mode), "error").Inc()
		log.Error("Extraction failed", logger.Error(err))
		return nil, err
	}

	results, err := s.deps.Pipelines[req.Mode].Run(ctx, query, text)
	if err != nil {
		s.deps.Metrics.PipelineRuns.WithLabelValues(string(req.Mode), "error").Inc()
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			log.Error("Pipeline stage failed",
				logger.String("stage", stageErr.Stage),
				logger.String("query_prefix", stageErr.QueryPrefix),
				logger.Error(stageErr.Err),
			)
		} else {
			log.Error("Pipeline failed", logger.Error(err))
		}
		return nil, err
	}
	s.deps.Metrics.PipelineRuns.WithLabelValues(string(req.Mode), "ok").Inc()

	resp, body, err := s.converter.Convert(req.Mode, query, fileName, results)
	if err != nil {
		return nil, err
	}

	s.persist(ctx, log, &models.AnalysisRecord{
		FileName:     fileName,
		Query:        query,
		Analysis:     resp.Analysis,
		AnalysisType: req.Mode,
	})

	if err := s.deps.Cache.Set(ctx, key, body, s.config.CacheTTL); err != nil {
		log.Warn("Failed to populate cache", logger.String("cache_key", key), logger.Error(err))
	}
	return body, nil
}

// extract returns the document text. Unreadable content comes back as one of the
// placeholder texts; an error means the read itself failed (storage, service,
// timeout) and the run must not be recorded or cached.
func (s *AnalysisService) extract(ctx context.Context, artifact *models.UploadedArtifact) (string, error) {
	rc, err := s.deps.Artifacts.Open(ctx, artifact)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer rc.Close()

	text, err := s.deps.Extractor.Extract(ctx, rc)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// persist writes the record; on failure the response is still returned and
// the record is handed to the retry queue when one is configured.
func (s *AnalysisService) persist(ctx context.Context, log logger.Logger, rec *models.AnalysisRecord) {
	id, err := s.deps.History.Append(ctx, rec)
	if err == nil {
		log.Info("Analysis recorded", logger.String("record_id", id))
		return
	}

	s.deps.Metrics.PersistenceFailures.Inc()
	log.Error("Failed to record analysis",
		logger.Bool("persistence_failure", true),
		logger.String("record_id", rec.ID),
		logger.Error(err),
	)
	if s.deps.Queue == nil || rec.ID == "" {
		return
	}
	if err := s.deps.Queue.EnqueueAppend(ctx, rec); err != nil {
		log.Error("Failed to enqueue history retry",
			logger.String("record_id", rec.ID),
			logger.Error(err),
		)
		return
	}
	log.Info("History retry enqueued", logger.String("record_id", rec.ID))
}

func (s *AnalysisService) History(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	records, err := s.deps.History.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return records, nil
}

func artifactPrefix(mode models.AnalysisType) string {
	if mode == models.AnalysisSimple {
		return storage.PrefixSimple
	}
	return storage.PrefixComprehensive
}
