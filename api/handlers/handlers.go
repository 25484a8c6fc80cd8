package handlers

import (
	"github.com/wahid18-maqs/blood-test-analyser/internal/service/analysis"
	"github.com/wahid18-maqs/blood-test-analyser/internal/utils/validator"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

type Handlers struct {
	Analysis *AnalysisHandler
	Health   *HealthHandler
}

func NewHandlers(
	service analysis.Analyzer,
	validator *validator.DocumentValidator,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Analysis: NewAnalysisHandler(service, validator, logger),
		Health:   NewHealthHandler(),
	}
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
