// Package schedule runs periodic maintenance jobs on cron specs.
package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

type CronScheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	logger  logger.Logger
	ctx     context.Context
}

func NewCronScheduler(log logger.Logger) *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
		logger:  log,
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	log := c.logger.With(logger.String("job", job.Name()), logger.String("spec", spec))
	entryID, err := c.cron.AddFunc(spec, c.wrap(job, log))
	if err != nil {
		log.Error("Schedule job failed", logger.Error(err))
		return err
	}
	c.entries[job.Name()] = entryID
	log.Info("Job scheduled")
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

// Stop waits for running jobs to finish.
func (c *CronScheduler) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *CronScheduler) wrap(job Job, log logger.Logger) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			log.Info("Job skipped: still running")
			return
		}
		defer running.Store(false)

		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		start := time.Now()
		err := job.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			log.Error("Job finished", logger.Error(err), logger.Duration("duration", elapsed))
			return
		}
		log.Debug("Job finished", logger.Duration("duration", elapsed))
	}
}
