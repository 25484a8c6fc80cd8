// Package queue carries deferred work over Redis using asynq.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

const (
	TaskTypeHistoryAppend = "history:append"

	QueueCritical = "critical"
	QueueDefault  = "default"
)

// Queues is the queue weighting used by the worker server.
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
}

// Queue accepts analysis records whose first write to the result store failed.
type Queue interface {
	EnqueueAppend(ctx context.Context, rec *models.AnalysisRecord) error
	Close() error
}

// AppendPayload is the task body for TaskTypeHistoryAppend.
type AppendPayload struct {
	Record     models.AnalysisRecord `json:"record"`
	EnqueuedAt time.Time             `json:"enqueuedAt"`
}

type AsynqQueue struct {
	client     *asynq.Client
	maxRetries int
}

func RedisOpt(cfg config.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}
}

func NewAsynqQueue(cfg config.QueueConfig) *AsynqQueue {
	return &AsynqQueue{
		client:     asynq.NewClient(RedisOpt(cfg)),
		maxRetries: cfg.MaxRetries,
	}
}

// NewAppendTask builds the retry task for rec. The task id is the record id,
// so enqueueing the same record twice is rejected by asynq.
func NewAppendTask(rec *models.AnalysisRecord, maxRetries int) (*asynq.Task, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("record has no id")
	}
	payload, err := json.Marshal(AppendPayload{Record: *rec, EnqueuedAt: time.Now()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return asynq.NewTask(TaskTypeHistoryAppend, payload,
		asynq.TaskID(rec.ID),
		asynq.MaxRetry(maxRetries),
		asynq.Queue(QueueCritical),
		asynq.Timeout(time.Minute),
	), nil
}

// ParseAppendTask decodes a TaskTypeHistoryAppend payload.
func ParseAppendTask(t *asynq.Task) (*AppendPayload, error) {
	var p AppendPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	if p.Record.ID == "" {
		return nil, fmt.Errorf("invalid task data: missing record id")
	}
	return &p, nil
}

func (q *AsynqQueue) EnqueueAppend(ctx context.Context, rec *models.AnalysisRecord) error {
	t, err := NewAppendTask(rec, q.maxRetries)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}
