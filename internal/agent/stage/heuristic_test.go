package stage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document"
)

const sampleReport = "Hemoglobin 11.2 g/dL 12.0-15.5\nGlucose 95 mg/dL 70-100\nTotal Cholesterol 240 mg/dL 125-200"

func TestVerifier(t *testing.T) {
	ctx := context.Background()

	out, err := Verifier{}.Run(ctx, Input{Text: sampleReport})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Validation status: Valid\n"))
	require.Contains(t, out, "- Hemoglobin: 11.2 g/dL (reference 12-15.5)")
	require.Contains(t, out, "Confidence: high (3 markers parsed)")

	out, err = Verifier{}.Run(ctx, Input{Text: "Dear customer, thank you for your order."})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Validation status: Invalid\n"))
}

func TestInterpreter(t *testing.T) {
	out, err := Interpreter{}.Run(context.Background(), Input{Query: "am I healthy?", Text: sampleReport})
	require.NoError(t, err)
	require.Contains(t, out, "Summary of key findings for: am I healthy?")
	require.Contains(t, out, "Hemoglobin: 11.2 g/dL (reference 12-15.5) is below the reference range")
	require.Contains(t, out, "Total Cholesterol: 240 mg/dL (reference 125-200) is above the reference range")
	require.Contains(t, out, "Within range: Glucose")
}

func TestNutritionAdvice(t *testing.T) {
	out := NutritionAdvice(sampleReport)
	require.True(t, strings.HasPrefix(out, "NUTRITION RECOMMENDATIONS:\n"))
	require.Contains(t, out, "iron-rich foods")
	require.Contains(t, out, "omega-3")
	require.Contains(t, out, "complex carbohydrates")
	require.NotContains(t, out, "balanced diet with variety")
	require.Contains(t, out, "DISCLAIMER:")

	require.Contains(t, NutritionAdvice("Sodium 140 mmol/L"), "Maintain a balanced diet")
	require.Equal(t, "Please upload a blood test report to receive personalized nutrition recommendations.", NutritionAdvice(""))
	require.True(t, strings.HasPrefix(NutritionAdvice(document.MissingDocumentText), "Upload your blood test report"))
}

func TestExerciseAdvice(t *testing.T) {
	out := ExerciseAdvice("LDL cholesterol 160 mg/dL\nBlood pressure 150/95")
	lines := strings.Split(out, "\n")
	require.Equal(t, "EXERCISE RECOMMENDATIONS:", lines[0])
	require.Equal(t, "• Cardiovascular exercise: 150 minutes moderate-intensity or 75 minutes vigorous-intensity per week", lines[1])
	require.Equal(t, "• Low to moderate intensity aerobic activities like walking, swimming, or cycling", lines[2])
	require.Equal(t, generalExerciseTips, lines[3:7])
	require.Contains(t, out, "IMPORTANT DISCLAIMERS:")

	require.Equal(t, "Please upload a blood test report to receive personalized exercise recommendations.", ExerciseAdvice("  "))
}
