package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/history"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/queue"
)

// RecordWorker replays analysis records that could not be persisted inline.
type RecordWorker struct {
	BaseWorker
	store history.Store
}

func NewRecordWorker(cfg config.QueueConfig, store history.Store, log logger.Logger) *RecordWorker {
	server := asynq.NewServer(
		queue.RedisOpt(cfg),
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      queue.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n+1) * cfg.RetryDelay
			},
		},
	)

	w := &RecordWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		store: store,
	}
	w.mux.HandleFunc(queue.TaskTypeHistoryAppend, w.HandleAppend)
	return w
}

// HandleAppend writes the record carried by t. A record that already exists
// counts as done, so replays are harmless.
func (w *RecordWorker) HandleAppend(ctx context.Context, t *asynq.Task) error {
	p, err := queue.ParseAppendTask(t)
	if err != nil {
		w.logger.Error("Invalid history task", logger.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	rec := p.Record
	_, err = w.store.Append(ctx, &rec)
	switch {
	case err == nil:
		w.logger.Info("Persisted deferred analysis record",
			logger.String("record_id", rec.ID),
			logger.Duration("delay", time.Since(p.EnqueuedAt)),
		)
		return nil
	case errors.Is(err, history.ErrConflict):
		w.logger.Info("Deferred analysis record already stored", logger.String("record_id", rec.ID))
		return nil
	default:
		w.logger.Warn("Deferred analysis record still failing",
			logger.String("record_id", rec.ID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to append record %s: %w", rec.ID, err)
	}
}
