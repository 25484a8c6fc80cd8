// Package worker runs the asynq server that drains deferred tasks.
package worker

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

type BaseWorker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	logger   logger.Logger
	stopChan chan struct{}
}

// Start runs the server in the background until ctx is done or Stop is called.
func (w *BaseWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopChan:
		}
	}()
	return nil
}

// Done is closed once Stop has run.
func (w *BaseWorker) Done() <-chan struct{} {
	return w.stopChan
}

func (w *BaseWorker) Stop() error {
	select {
	case <-w.stopChan:
		return nil
	default:
	}
	close(w.stopChan)
	w.server.Shutdown()
	return nil
}
