// Package converters turns pipeline output into the response body.
package converters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
)

const (
	ComprehensiveDisclaimer = "This analysis is for informational purposes only and should not replace professional medical advice. Always consult with qualified healthcare providers for medical decisions."
	SimpleDisclaimer        = "This analysis is for informational purposes only. Consult healthcare providers for medical advice."
)

// Disclaimer returns the disclaimer attached to responses of the given mode.
func Disclaimer(mode models.AnalysisType) string {
	if mode == models.AnalysisSimple {
		return SimpleDisclaimer
	}
	return ComprehensiveDisclaimer
}

// RenderReport joins stage outputs as "## Title" sections in the order given.
func RenderReport(results []models.StageResult) string {
	sections := make([]string, 0, len(results))
	for _, r := range results {
		sections = append(sections, "## "+r.Title+"\n"+strings.TrimSpace(r.Output))
	}
	return strings.Join(sections, "\n\n")
}

type ResponseConverter struct{}

func NewResponseConverter() *ResponseConverter {
	return &ResponseConverter{}
}

// Convert builds the serialized success response. The returned bytes are what
// gets cached, so a cache hit replays them unchanged.
func (c *ResponseConverter) Convert(mode models.AnalysisType, query, fileName string, results []models.StageResult) (*models.AnalysisResponse, []byte, error) {
	if len(results) == 0 {
		return nil, nil, fmt.Errorf("no stage results to convert")
	}

	resp := &models.AnalysisResponse{
		Status:        "success",
		Query:         query,
		FileProcessed: fileName,
		Analysis:      RenderReport(results),
		AnalysisType:  mode,
		Disclaimer:    Disclaimer(mode),
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return resp, body, nil
}
