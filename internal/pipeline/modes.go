package pipeline

import (
	"fmt"

	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/stage"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

func verification(execs map[string]stage.Executor) Stage {
	return Stage{
		Name:        models.StageVerification,
		Title:       "Document Verification",
		Executor:    execs[models.StageVerification],
		Placeholder: "Please upload a valid blood test report PDF so the document can be verified.",
	}
}

func interpretation(execs map[string]stage.Executor) Stage {
	return Stage{
		Name:        models.StageInterpretation,
		Title:       "Medical Interpretation",
		DependsOn:   []string{models.StageVerification},
		Executor:    execs[models.StageInterpretation],
		Placeholder: "Please upload a blood test report PDF file to get a detailed analysis of your results.",
	}
}

// Comprehensive builds verification, interpretation, nutrition and exercise.
func Comprehensive(execs map[string]stage.Executor, opts ...Option) (*Pipeline, error) {
	return New([]Stage{
		verification(execs),
		interpretation(execs),
		{
			Name:        models.StageNutrition,
			Title:       "Nutrition Recommendations",
			DependsOn:   []string{models.StageVerification},
			Executor:    execs[models.StageNutrition],
			Placeholder: "Upload your blood test report to get personalized nutrition advice based on your specific lab values and health markers.",
		},
		{
			Name:        models.StageExercise,
			Title:       "Exercise Plan",
			DependsOn:   []string{models.StageVerification, models.StageNutrition},
			Executor:    execs[models.StageExercise],
			Placeholder: "Upload your blood test report to get personalized exercise recommendations based on your health markers and lab values.",
		},
	}, opts...)
}

// Simple builds verification and interpretation only.
func Simple(execs map[string]stage.Executor, opts ...Option) (*Pipeline, error) {
	return New([]Stage{
		verification(execs),
		interpretation(execs),
	}, opts...)
}

// ForMode returns the pipeline for an analysis type.
func ForMode(mode models.AnalysisType, execs map[string]stage.Executor, opts ...Option) (*Pipeline, error) {
	switch mode {
	case models.AnalysisComprehensive:
		return Comprehensive(execs, opts...)
	case models.AnalysisSimple:
		return Simple(execs, opts...)
	default:
		return nil, fmt.Errorf("unknown analysis type %q", mode)
	}
}
