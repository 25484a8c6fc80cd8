package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
	"github.com/wahid18-maqs/blood-test-analyser/internal/service/analysis"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

func TestNewWiresDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.LocalDir = filepath.Join(dir, "data")
	cfg.Database.DSN = filepath.Join(dir, "db.sqlite3")

	a, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	require.Nil(t, a.Queue)

	body, err := a.Service.Analyze(context.Background(), analysis.Request{
		Mode:     models.AnalysisSimple,
		FileName: "empty.pdf",
	})
	require.NoError(t, err)
	require.Contains(t, string(body), `"analysis_type":"simple"`)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestNewRejectsUnknownExtractor(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.LocalDir = t.TempDir()
	cfg.Extractor.Type = "ocr"

	_, err := New(context.Background(), cfg, logger.NewNop())
	require.Error(t, err)
}
