package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/wahid18-maqs/blood-test-analyser/api/handlers"
	"github.com/wahid18-maqs/blood-test-analyser/api/routes"
	"github.com/wahid18-maqs/blood-test-analyser/internal/app"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/schedule"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize application", logger.Error(err))
		return err
	}
	defer a.Close()

	scheduler := schedule.NewCronScheduler(log.Named("schedule"))
	if err := scheduler.AddJob(schedule.NewArtifactSweep(a.Storage, cfg.Storage.Retention, a.Metrics), cfg.Storage.SweepSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	h := handlers.NewHandlers(a.Service, a.Validator, log)
	routes.SetupRoutes(r, h, routes.Options{
		AllowOrigins: cfg.Server.AllowOrigins,
		Metrics:      a.Metrics,
		Gatherer:     a.Registry,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error("Server error", logger.Error(err))
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
		return err
	}
	// analyses whose callers already left still hold the history store
	if err := a.Service.Wait(shutdownCtx); err != nil {
		log.Warn("Shutdown timed out waiting for running analyses", logger.Error(err))
	}
	return nil
}
