package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

// Heuristic returns the offline executors keyed by stage name.
func Heuristic() map[string]Executor {
	return map[string]Executor{
		models.StageVerification:   Verifier{},
		models.StageInterpretation: Interpreter{},
		models.StageNutrition:      Nutritionist{},
		models.StageExercise:       ExercisePlanner{},
	}
}

// NewExecutors builds one executor per stage for the configured provider.
func NewExecutors(ctx context.Context, cfg config.LLMConfig) (map[string]Executor, error) {
	var completer Completer
	switch cfg.Provider {
	case "", "heuristic":
		return Heuristic(), nil
	case "gemini":
		c, err := NewGeminiCompleter(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		completer = c
	case "openai":
		completer = NewOpenAICompleter(cfg.APIKey, cfg.Model, cfg.MaxTokens)
	case "ollama":
		completer = NewOllamaCompleter(cfg.Endpoint, cfg.Model, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	return LLMExecutors(completer, cfg.Timeout)
}

// LLMExecutors wires the same completer behind every stage persona.
func LLMExecutors(c Completer, timeout time.Duration) (map[string]Executor, error) {
	execs := make(map[string]Executor, len(personas))
	for name := range personas {
		e, err := NewLLMExecutor(c, name, timeout)
		if err != nil {
			return nil, err
		}
		execs[name] = e
	}
	return execs, nil
}
