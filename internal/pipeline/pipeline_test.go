package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/stage"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

// recorder returns executors that log their calls and echo what they saw.
type recorder struct {
	mu    sync.Mutex
	calls []string
	seen  map[string][]string
	fail  map[string]error
}

func newRecorder() *recorder {
	return &recorder{seen: map[string][]string{}, fail: map[string]error{}}
}

func (r *recorder) executors() map[string]stage.Executor {
	execs := map[string]stage.Executor{}
	for _, name := range []string{models.StageVerification, models.StageInterpretation, models.StageNutrition, models.StageExercise} {
		name := name
		execs[name] = stage.ExecutorFunc(func(ctx context.Context, in stage.Input) (string, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.calls = append(r.calls, name)
			for _, p := range in.Prior {
				r.seen[name] = append(r.seen[name], p.Stage)
			}
			if err := r.fail[name]; err != nil {
				return "", err
			}
			return name + " done", nil
		})
	}
	return execs
}

func TestComprehensiveOrderAndDependencies(t *testing.T) {
	rec := newRecorder()
	p, err := Comprehensive(rec.executors())
	require.NoError(t, err)

	results, err := p.Run(context.Background(), "q", "Hemoglobin 13 g/dL")
	require.NoError(t, err)

	order := []string{models.StageVerification, models.StageInterpretation, models.StageNutrition, models.StageExercise}
	if diff := cmp.Diff(order, rec.calls); diff != "" {
		t.Fatalf("call order (-want +got):\n%s", diff)
	}
	require.Equal(t, order, p.Stages())

	want := []models.StageResult{
		{Stage: models.StageVerification, Title: "Document Verification", Output: "verification done"},
		{Stage: models.StageInterpretation, Title: "Medical Interpretation", Output: "interpretation done"},
		{Stage: models.StageNutrition, Title: "Nutrition Recommendations", Output: "nutrition done"},
		{Stage: models.StageExercise, Title: "Exercise Plan", Output: "exercise done"},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("results (-want +got):\n%s", diff)
	}

	require.Empty(t, rec.seen[models.StageVerification])
	require.Equal(t, []string{models.StageVerification}, rec.seen[models.StageInterpretation])
	require.Equal(t, []string{models.StageVerification}, rec.seen[models.StageNutrition])
	require.Equal(t, []string{models.StageVerification, models.StageNutrition}, rec.seen[models.StageExercise])
}

func TestSimpleRunsTwoStages(t *testing.T) {
	rec := newRecorder()
	p, err := ForMode(models.AnalysisSimple, rec.executors())
	require.NoError(t, err)

	results, err := p.Run(context.Background(), "q", "Glucose 90 mg/dL")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, []string{models.StageVerification, models.StageInterpretation}, rec.calls)

	_, err = ForMode("weekly", rec.executors())
	require.Error(t, err)
}

func TestPlaceholderShortCircuit(t *testing.T) {
	for _, text := range []string{"", "   ", document.EmptyDocumentText, document.UnreadableDocumentText} {
		rec := newRecorder()
		p, err := Comprehensive(rec.executors())
		require.NoError(t, err)

		results, err := p.Run(context.Background(), "q", text)
		require.NoError(t, err)
		require.Empty(t, rec.calls)
		require.Len(t, results, 4)
		for _, r := range results {
			require.NotEmpty(t, r.Output)
			require.True(t, strings.Contains(strings.ToLower(r.Output), "upload"))
		}
	}
}

func TestStageFailureAborts(t *testing.T) {
	rec := newRecorder()
	boom := errors.New("model unavailable")
	rec.fail[models.StageNutrition] = boom

	var observed []string
	p, err := Comprehensive(rec.executors(), WithObserver(func(name string, _ time.Duration, err error) {
		observed = append(observed, name)
	}))
	require.NoError(t, err)

	query := strings.Repeat("why is my ferritin low ", 10)
	results, err := p.Run(context.Background(), query, "Ferritin 8 ng/mL")
	require.Nil(t, results)
	require.ErrorIs(t, err, boom)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	require.Equal(t, models.StageNutrition, stageErr.Stage)
	require.Less(t, len(stageErr.QueryPrefix), len(query))
	require.Equal(t, []string{models.StageVerification, models.StageInterpretation, models.StageNutrition}, rec.calls)
	require.Equal(t, rec.calls, observed)
}

func TestCancelledContextStopsRun(t *testing.T) {
	rec := newRecorder()
	p, err := Comprehensive(rec.executors())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, "q", "Glucose 90 mg/dL")
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, rec.calls)
}

func TestNewRejectsBadStages(t *testing.T) {
	noop := stage.ExecutorFunc(func(context.Context, stage.Input) (string, error) { return "", nil })

	_, err := New(nil)
	require.Error(t, err)

	_, err = New([]Stage{{Name: "a", Executor: noop, DependsOn: []string{"b"}}, {Name: "b", Executor: noop}})
	require.ErrorContains(t, err, "does not run before it")

	_, err = New([]Stage{{Name: "a", Executor: noop}, {Name: "a", Executor: noop}})
	require.ErrorContains(t, err, "duplicate")

	_, err = Comprehensive(map[string]stage.Executor{})
	require.ErrorContains(t, err, "no executor")
}
