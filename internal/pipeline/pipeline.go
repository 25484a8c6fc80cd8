// Package pipeline runs an ordered list of analysis stages over one report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/stage"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

// Stage describes one step. DependsOn names earlier stages whose outputs are
// passed to Executor. Placeholder is returned instead of calling Executor when
// the document carried no report data.
type Stage struct {
	Name        string
	Title       string
	DependsOn   []string
	Executor    stage.Executor
	Placeholder string
}

// StageError reports which stage failed. QueryPrefix is a short, loggable
// prefix of the user query.
type StageError struct {
	Stage       string
	QueryPrefix string
	Err         error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed (query %q): %v", e.Stage, e.QueryPrefix, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Observer is told how long each executed stage took.
type Observer func(stage string, elapsed time.Duration, err error)

type Pipeline struct {
	stages   []Stage
	logger   logger.Logger
	observer Observer
}

type Option func(*Pipeline)

func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// New validates the stage list: names are unique, every stage has an executor
// and every dependency refers to an earlier stage.
func New(stages []Stage, opts ...Option) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline needs at least one stage")
	}
	seen := make(map[string]bool, len(stages))
	for _, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("stage name must not be empty")
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate stage %q", s.Name)
		}
		if s.Executor == nil {
			return nil, fmt.Errorf("stage %q has no executor", s.Name)
		}
		for _, dep := range s.DependsOn {
			if !seen[dep] {
				return nil, fmt.Errorf("stage %q depends on %q, which does not run before it", s.Name, dep)
			}
		}
		seen[s.Name] = true
	}

	p := &Pipeline{
		stages: stages,
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes every stage in order. A placeholder text skips all executors.
// The first executor error or context cancellation stops the run.
func (p *Pipeline) Run(ctx context.Context, query, text string) ([]models.StageResult, error) {
	results := make([]models.StageResult, 0, len(p.stages))

	if document.IsPlaceholder(text) {
		for _, s := range p.stages {
			results = append(results, models.StageResult{Stage: s.Name, Title: s.Title, Output: s.Placeholder})
		}
		return results, nil
	}

	outputs := make(map[string]models.StageResult, len(p.stages))
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, &StageError{Stage: s.Name, QueryPrefix: queryPrefix(query), Err: err}
		}

		in := stage.Input{Query: query, Text: text}
		for _, dep := range s.DependsOn {
			in.Prior = append(in.Prior, outputs[dep])
		}

		start := time.Now()
		out, err := s.Executor.Run(ctx, in)
		elapsed := time.Since(start)
		if p.observer != nil {
			p.observer(s.Name, elapsed, err)
		}
		if err != nil {
			return nil, &StageError{Stage: s.Name, QueryPrefix: queryPrefix(query), Err: err}
		}
		p.logger.Debug("Stage completed",
			logger.String("stage", s.Name),
			logger.Duration("elapsed", elapsed),
		)

		result := models.StageResult{Stage: s.Name, Title: s.Title, Output: out}
		outputs[s.Name] = result
		results = append(results, result)
	}
	return results, nil
}

const queryPrefixRunes = 64

func queryPrefix(q string) string {
	r := []rune(q)
	if len(r) <= queryPrefixRunes {
		return q
	}
	return string(r[:queryPrefixRunes]) + "..."
}
