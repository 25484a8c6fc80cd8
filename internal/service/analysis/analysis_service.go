// Package analysis coordinates one analysis request from upload to response.
package analysis

import (
	"context"

	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

// Default queries used when the request leaves the query blank.
const (
	DefaultComprehensiveQuery = "Please provide a comprehensive analysis of my blood test report"
	DefaultSimpleQuery        = "Summarize my blood test report"
)

// Request is one uploaded report plus the user's question.
type Request struct {
	Mode     models.AnalysisType
	FileName string
	Content  []byte
	Query    string
}

type Analyzer interface {
	// Analyze returns the serialized response body. Identical content and
	// query within the cache TTL return byte-identical bodies.
	Analyze(ctx context.Context, req Request) ([]byte, error)
	// History returns the most recent analyses, newest first.
	History(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
}

func defaultQuery(mode models.AnalysisType) string {
	if mode == models.AnalysisSimple {
		return DefaultSimpleQuery
	}
	return DefaultComprehensiveQuery
}
