package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wahid18-maqs/blood-test-analyser/internal/app"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Replay analysis records whose inline history write failed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		store, err := app.OpenHistory(cmd.Context(), cfg)
		if err != nil {
			log.Error("Failed to open history store", logger.Error(err))
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		recordWorker := worker.NewRecordWorker(cfg.Queue, store, log.Named("worker"))
		if err := recordWorker.Start(ctx); err != nil {
			log.Error("Failed to start worker", logger.Error(err))
			return err
		}
		log.Info("Worker started", logger.String("redis", cfg.Queue.RedisAddr))

		<-recordWorker.Done()
		log.Info("Worker stopped")
		return nil
	},
}
