package stage

import (
	"fmt"
	"strings"

	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

// Persona is the role an LLM plays for one stage.
type Persona struct {
	Role      string
	Goal      string // may contain {query}
	Backstory string
}

// Task describes what a stage must produce.
type Task struct {
	Description    string
	ExpectedOutput string
}

var personas = map[string]Persona{
	models.StageVerification: {
		Role: "Blood Report Verifier",
		Goal: "Verify the authenticity and completeness of blood test reports",
		Backstory: "You are a medical records specialist with expertise in validating blood test reports. " +
			"You ensure that uploaded documents contain proper medical data, correct formatting, " +
			"and all necessary information for accurate analysis. " +
			"You flag any inconsistencies or missing data that might affect the interpretation.",
	},
	models.StageInterpretation: {
		Role: "Senior Experienced Doctor",
		Goal: "Analyze blood test reports and provide accurate medical insights for: {query}",
		Backstory: "You are an experienced medical professional with expertise in interpreting blood test results. " +
			"You provide evidence-based medical insights and recommendations based on laboratory findings. " +
			"You always consider the full clinical picture and recommend appropriate follow-up care when needed. " +
			"You emphasize the importance of consulting healthcare providers for proper medical advice.",
	},
	models.StageNutrition: {
		Role: "Clinical Nutritionist",
		Goal: "Provide evidence-based nutritional recommendations based on blood test results",
		Backstory: "You are a certified clinical nutritionist with expertise in interpreting blood markers " +
			"as they relate to nutritional status. You provide scientifically-backed dietary recommendations " +
			"to address deficiencies, optimize health markers, and support overall wellness. " +
			"You consider individual needs and medical conditions when making recommendations.",
	},
	models.StageExercise: {
		Role: "Exercise Physiologist",
		Goal: "Create safe and effective exercise recommendations based on health markers",
		Backstory: "You are a certified exercise physiologist with expertise in designing exercise programs " +
			"based on individual health profiles and blood test results. You consider cardiovascular health, " +
			"metabolic markers, and any contraindications when creating personalized fitness recommendations. " +
			"You prioritize safety and gradual progression in all exercise prescriptions.",
	},
}

var tasks = map[string]Task{
	models.StageVerification: {
		Description: "Verify whether the uploaded document is a valid blood test report.\n" +
			"Attempt to parse test names, values, units, and reference ranges.\n" +
			"If the document is invalid or lacks required data, report it clearly.",
		ExpectedOutput: "Provide:\n" +
			"- Validation status (Valid/Invalid)\n" +
			"- Extracted medical values and units (if any)\n" +
			"- Format issues or errors found\n" +
			"- Confidence score or notes on reliability",
	},
	models.StageInterpretation: {
		Description: "Interpret a user's health-related query based on their blood test report.\n" +
			"Use the uploaded blood test document to identify any anomalies and respond with thoughtful medical insights.\n" +
			"If the report lacks sufficient data, offer general guidance based on best practices or recent research.",
		ExpectedOutput: "Your response should include:\n" +
			"- A brief summary of key findings from the blood report\n" +
			"- Interpretation of any unusual markers or results\n" +
			"- Personalized health suggestions or medical advice\n" +
			"- Additional resources or references",
	},
	models.StageNutrition: {
		Description: "Evaluate the patient's blood test report to determine dietary adjustments.\n" +
			"Focus on markers like glucose, lipids, vitamin levels, and iron to suggest nutrition strategies.\n" +
			"Address any deficiencies or risks using evidence-based diet planning.",
		ExpectedOutput: "Include the following in the response:\n" +
			"- Nutritional deficiencies or imbalances detected\n" +
			"- Recommended foods or dietary changes to address those\n" +
			"- Suggested supplements if necessary\n" +
			"- Example meals or food groups",
	},
	models.StageExercise: {
		Description: "Design an exercise routine tailored to the patient's health status as reflected in the blood report.\n" +
			"Consider cardiovascular health, inflammation markers, or overall fitness when creating the plan.",
		ExpectedOutput: "Your response should cover:\n" +
			"- Appropriate exercise types (e.g., cardio, strength, flexibility)\n" +
			"- Frequency and intensity recommendations\n" +
			"- Safety notes or health conditions to consider\n" +
			"- Progress tracking suggestions",
	},
}

// SystemPrompt renders the persona for a stage.
func SystemPrompt(p Persona, query string) string {
	return fmt.Sprintf("You are a %s.\n%s\nYour goal: %s",
		p.Role, p.Backstory, strings.ReplaceAll(p.Goal, "{query}", query))
}

// UserPrompt renders the task, the report text and any prior findings.
func UserPrompt(t Task, in Input) string {
	var sb strings.Builder
	sb.WriteString(t.Description)
	sb.WriteString("\n\nUser query: ")
	sb.WriteString(in.Query)
	sb.WriteString("\n\nBlood test report:\n")
	sb.WriteString(in.Text)
	if len(in.Prior) > 0 {
		sb.WriteString("\n\nFindings from earlier stages:")
		for _, r := range in.Prior {
			fmt.Fprintf(&sb, "\n## %s\n%s", r.Title, r.Output)
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(t.ExpectedOutput)
	return sb.String()
}
