package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CacheLookups.WithLabelValues("hit").Inc()
	m.PersistenceFailures.Inc()
	m.ObserveStage("verification", 10*time.Millisecond, nil)
	m.ObserveStage("verification", time.Millisecond, errors.New("x"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PersistenceFailures))
	require.Equal(t, 2, testutil.CollectAndCount(m.StageDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	require.Panics(t, func() { New(reg) })
}
