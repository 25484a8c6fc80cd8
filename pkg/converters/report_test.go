package converters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

func TestRenderReport(t *testing.T) {
	got := RenderReport([]models.StageResult{
		{Stage: models.StageVerification, Title: "Document Verification", Output: "ok\n"},
		{Stage: models.StageInterpretation, Title: "Medical Interpretation", Output: "fine"},
	})
	require.Equal(t, "## Document Verification\nok\n\n## Medical Interpretation\nfine", got)
	require.Empty(t, RenderReport(nil))
}

func TestConvert(t *testing.T) {
	c := NewResponseConverter()
	results := []models.StageResult{{Stage: models.StageVerification, Title: "Document Verification", Output: "ok"}}

	resp, body, err := c.Convert(models.AnalysisSimple, "summarize", "report.pdf", results)
	require.NoError(t, err)
	require.Equal(t, SimpleDisclaimer, resp.Disclaimer)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Equal(t, map[string]string{
		"status":         "success",
		"query":          "summarize",
		"file_processed": "report.pdf",
		"analysis":       "## Document Verification\nok",
		"analysis_type":  "simple",
		"disclaimer":     SimpleDisclaimer,
	}, decoded)

	_, _, err = c.Convert(models.AnalysisComprehensive, "q", "f", nil)
	require.Error(t, err)
	require.Equal(t, ComprehensiveDisclaimer, Disclaimer(models.AnalysisComprehensive))
}
