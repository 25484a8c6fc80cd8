package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "analyser",
	Short:        "Blood test report analysis API",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd, historyCmd, sweepCmd, workerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewLogger(logger.WithConfig(cfg.Log))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, log, nil
}
