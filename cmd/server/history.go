package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wahid18-maqs/blood-test-analyser/internal/app"
	"github.com/wahid18-maqs/blood-test-analyser/internal/service/analysis"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/schedule"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the most recent analyses as JSON lines",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if historyLimit <= 0 || historyLimit > analysis.MaxHistoryLimit {
			return fmt.Errorf("--limit must be between 1 and %d", analysis.MaxHistoryLimit)
		}
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		store, err := app.OpenHistory(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.ListRecent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete stored uploads older than the retention window once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		backend, err := storage.NewStorage(cmd.Context(), cfg.Storage, log)
		if err != nil {
			return err
		}
		start := time.Now()
		if err := schedule.NewArtifactSweep(backend, cfg.Storage.Retention, nil).Run(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "swept uploads older than %s in %s\n", cfg.Storage.Retention, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", analysis.DefaultHistoryLimit, "number of records to print")
}
