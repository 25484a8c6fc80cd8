// Package history is the append-only log of completed analyses.
package history

import (
	"context"
	"errors"

	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

var (
	// ErrConflict is returned when a record with the same id already exists.
	ErrConflict = errors.New("record already exists")
)

// Store appends records and lists them newest first. Records are never updated or deleted.
type Store interface {
	// Append writes rec and returns its id. An empty rec.ID and zero rec.Timestamp
	// are assigned by the store; preset values are kept so a retried append is
	// detected as a conflict.
	Append(ctx context.Context, rec *models.AnalysisRecord) (string, error)
	// ListRecent returns at most n records, newest first.
	ListRecent(ctx context.Context, n int) ([]models.AnalysisRecord, error)
	Close() error
}
