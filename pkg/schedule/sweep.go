package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/wahid18-maqs/blood-test-analyser/pkg/metrics"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/storage"
)

// ArtifactSweep deletes uploaded artifacts older than the retention period.
// Request handling removes its own artifact; this catches what a crash left behind.
type ArtifactSweep struct {
	store     storage.Storage
	retention time.Duration
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewArtifactSweep(store storage.Storage, retention time.Duration, m *metrics.Metrics) *ArtifactSweep {
	return &ArtifactSweep{
		store:     store,
		retention: retention,
		metrics:   m,
		now:       time.Now,
	}
}

func (j *ArtifactSweep) Name() string {
	return "artifact_sweep"
}

func (j *ArtifactSweep) Run(ctx context.Context) error {
	err := j.store.CleanupBefore(ctx, j.now().Add(-j.retention))
	if j.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		j.metrics.ArtifactSweeps.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		return fmt.Errorf("failed to sweep artifacts: %w", err)
	}
	return nil
}
