package models

import "time"

// AnalysisType selects the pipeline variant.
type AnalysisType string

const (
	AnalysisComprehensive AnalysisType = "comprehensive"
	AnalysisSimple        AnalysisType = "simple"
)

// Valid reports whether t names a known pipeline variant.
func (t AnalysisType) Valid() bool {
	return t == AnalysisComprehensive || t == AnalysisSimple
}

const (
	StageVerification   = "verification"
	StageInterpretation = "interpretation"
	StageNutrition      = "nutrition"
	StageExercise       = "exercise"
)

// StageResult is the output of one pipeline stage.
type StageResult struct {
	Stage  string `json:"stage"`
	Title  string `json:"title"`
	Output string `json:"output"`
}

// AnalysisRecord is one completed analysis in the history log.
type AnalysisRecord struct {
	ID           string       `json:"id"`
	FileName     string       `json:"file_name"`
	Query        string       `json:"query"`
	Analysis     string       `json:"analysis"`
	AnalysisType AnalysisType `json:"analysis_type"`
	Timestamp    time.Time    `json:"timestamp"`
}

// AnalysisResponse is the body returned by the analyze endpoints.
type AnalysisResponse struct {
	Status        string       `json:"status"`
	Query         string       `json:"query"`
	FileProcessed string       `json:"file_processed"`
	Analysis      string       `json:"analysis"`
	AnalysisType  AnalysisType `json:"analysis_type"`
	Disclaimer    string       `json:"disclaimer"`
}
