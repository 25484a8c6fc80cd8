package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document"
)

// Verifier checks that the text looks like a lab report and lists the values it found.
type Verifier struct{}

func (Verifier) Run(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	markers := ParseMarkers(in.Text)

	var sb strings.Builder
	if len(markers) == 0 {
		sb.WriteString("Validation status: Invalid\n")
		sb.WriteString("No test names with values, units or reference ranges could be identified.\n")
		sb.WriteString("Format issues: the document does not follow a recognizable lab report layout.\n")
		sb.WriteString("Confidence: low")
		return sb.String(), nil
	}

	sb.WriteString("Validation status: Valid\n")
	sb.WriteString("Extracted values:\n")
	var noRange []string
	for _, m := range markers {
		sb.WriteString("- ")
		sb.WriteString(m.String())
		sb.WriteString("\n")
		if !m.HasRange {
			noRange = append(noRange, m.Name)
		}
	}
	if len(noRange) == 0 {
		sb.WriteString("Format issues: none found\n")
	} else {
		fmt.Fprintf(&sb, "Format issues: no reference range for %s\n", strings.Join(noRange, ", "))
	}
	fmt.Fprintf(&sb, "Confidence: %s (%d markers parsed)", confidence(len(markers), len(noRange)), len(markers))
	return sb.String(), nil
}

func confidence(total, missingRange int) string {
	switch {
	case total >= 3 && missingRange == 0:
		return "high"
	case total-missingRange >= 1:
		return "medium"
	default:
		return "low"
	}
}

// Interpreter flags markers outside their reference range.
type Interpreter struct{}

func (Interpreter) Run(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	markers := ParseMarkers(in.Text)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Summary of key findings for: %s\n", in.Query)
	if len(markers) == 0 {
		sb.WriteString("The report did not contain recognizable test values. ")
		sb.WriteString("General guidance: keep up with routine check-ups and review the full report with your doctor.\n")
		sb.WriteString(consultNote)
		return sb.String(), nil
	}

	var abnormal, normal, unknown []string
	for _, m := range markers {
		switch m.Status() {
		case "low":
			abnormal = append(abnormal, fmt.Sprintf("- %s is below the reference range", m))
		case "high":
			abnormal = append(abnormal, fmt.Sprintf("- %s is above the reference range", m))
		case "normal":
			normal = append(normal, m.Name)
		default:
			unknown = append(unknown, m.Name)
		}
	}

	if len(abnormal) == 0 {
		sb.WriteString("All markers with a reference range are within normal limits.\n")
	} else {
		sb.WriteString("Markers outside the reference range:\n")
		sb.WriteString(strings.Join(abnormal, "\n"))
		sb.WriteString("\n")
	}
	if len(normal) > 0 {
		fmt.Fprintf(&sb, "Within range: %s\n", strings.Join(normal, ", "))
	}
	if len(unknown) > 0 {
		fmt.Fprintf(&sb, "Not assessed (no reference range): %s\n", strings.Join(unknown, ", "))
	}
	sb.WriteString(consultNote)
	return sb.String(), nil
}

const consultNote = "Discuss these results with a healthcare provider, who can consider your full clinical picture and recommend follow-up care."

// Nutritionist applies keyword rules to the report text.
type Nutritionist struct{}

func (Nutritionist) Run(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return NutritionAdvice(in.Text), nil
}

// NutritionAdvice returns diet bullets for the markers mentioned in text.
func NutritionAdvice(text string) string {
	if strings.TrimSpace(text) == "" {
		return "Please upload a blood test report to receive personalized nutrition recommendations."
	}
	lower := strings.ToLower(text)
	if document.IsPlaceholder(text) {
		return "Upload your blood test report to get personalized nutrition advice based on your specific lab values and health markers."
	}

	var tips []string
	if strings.Contains(lower, "hemoglobin") || strings.Contains(lower, "hb") {
		tips = append(tips, "• Monitor iron levels - consider iron-rich foods like spinach, lean meats, and legumes")
	}
	if strings.Contains(lower, "cholesterol") {
		tips = append(tips, "• Consider heart-healthy diet with omega-3 fatty acids, fiber-rich foods, and reduced saturated fats")
	}
	if strings.Contains(lower, "glucose") || strings.Contains(lower, "sugar") {
		tips = append(tips, "• Monitor carbohydrate intake and consider complex carbohydrates over simple sugars")
	}
	if strings.Contains(lower, "vitamin") {
		tips = append(tips, "• Ensure adequate vitamin intake through balanced diet and consider consulting with healthcare provider about supplementation")
	}
	if len(tips) == 0 {
		tips = append(tips, "• Maintain a balanced diet with variety of fruits, vegetables, whole grains, and lean proteins")
	}

	return "NUTRITION RECOMMENDATIONS:\n" + strings.Join(tips, "\n") +
		"\n\nDISCLAIMER: This is for informational purposes only. Always consult with a qualified healthcare provider or registered dietitian for personalized medical and nutritional advice."
}

// ExercisePlanner applies keyword rules to the report text.
type ExercisePlanner struct{}

func (ExercisePlanner) Run(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return ExerciseAdvice(in.Text), nil
}

var generalExerciseTips = []string{
	"• Start slowly and gradually increase intensity",
	"• Include both aerobic and strength training exercises",
	"• Ensure adequate warm-up and cool-down periods",
	"• Stay hydrated and listen to your body",
}

// ExerciseAdvice returns exercise bullets for the conditions mentioned in text.
func ExerciseAdvice(text string) string {
	if strings.TrimSpace(text) == "" {
		return "Please upload a blood test report to receive personalized exercise recommendations."
	}
	lower := strings.ToLower(text)
	if document.IsPlaceholder(text) {
		return "Upload your blood test report to get personalized exercise recommendations based on your health markers and lab values."
	}

	var tips []string
	if strings.Contains(lower, "cholesterol") || strings.Contains(lower, "lipid") {
		tips = append(tips, "• Cardiovascular exercise: 150 minutes moderate-intensity or 75 minutes vigorous-intensity per week")
	}
	if strings.Contains(lower, "glucose") || strings.Contains(lower, "diabetes") {
		tips = append(tips, "• Regular aerobic exercise and resistance training to improve insulin sensitivity")
	}
	if strings.Contains(lower, "blood pressure") || strings.Contains(lower, "hypertension") {
		tips = append(tips, "• Low to moderate intensity aerobic activities like walking, swimming, or cycling")
	}
	tips = append(tips, generalExerciseTips...)

	return "EXERCISE RECOMMENDATIONS:\n" + strings.Join(tips, "\n") +
		"\n\nIMPORTANT DISCLAIMERS:\n" +
		"• Always consult with your healthcare provider before starting any new exercise program\n" +
		"• Stop exercising and seek medical attention if you experience chest pain, shortness of breath, or dizziness\n" +
		"• These are general recommendations and may not be suitable for all individuals"
}
