// Package stage holds the executors behind each pipeline stage: offline
// heuristics and LLM-backed personas.
package stage

import (
	"context"

	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

// Input is what a stage sees: the user query, the extracted report text and
// the outputs of the stages it depends on, in pipeline order.
type Input struct {
	Query string
	Text  string
	Prior []models.StageResult
}

// PriorOutput returns the output of the named earlier stage.
func (in Input) PriorOutput(name string) (string, bool) {
	for _, r := range in.Prior {
		if r.Stage == name {
			return r.Output, true
		}
	}
	return "", false
}

type Executor interface {
	Run(ctx context.Context, in Input) (string, error)
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context, in Input) (string, error)

func (f ExecutorFunc) Run(ctx context.Context, in Input) (string, error) {
	return f(ctx, in)
}
