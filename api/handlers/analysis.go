package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
	"github.com/wahid18-maqs/blood-test-analyser/internal/service/analysis"
	"github.com/wahid18-maqs/blood-test-analyser/internal/utils/validator"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

// multipart framing allowance on top of the file size limit
const formOverhead = 1 << 20

type AnalysisHandler struct {
	service   analysis.Analyzer
	validator *validator.DocumentValidator
	logger    logger.Logger
}

type HistoryResponse struct {
	Records []models.AnalysisRecord `json:"records"`
	Count   int                     `json:"count"`
}

func NewAnalysisHandler(service analysis.Analyzer, validator *validator.DocumentValidator, logger logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// Analyze runs the full four-stage analysis.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	h.analyze(c, models.AnalysisComprehensive)
}

// AnalyzeSimple runs verification and interpretation only.
func (h *AnalysisHandler) AnalyzeSimple(c *gin.Context) {
	h.analyze(c, models.AnalysisSimple)
}

func (h *AnalysisHandler) analyze(c *gin.Context, mode models.AnalysisType) {
	maxSize := h.validator.MaxFileSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+formOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.handleError(c, h.validator.TooLarge())
		case errors.Is(err, http.ErrMissingFile):
			h.handleError(c, h.validator.ValidateHeader("", -1))
		default:
			h.handleError(c, &validator.ValidationError{
				Code:    validator.CodeMissingFile,
				Message: "Invalid file upload",
				Field:   "file",
			})
		}
		return
	}
	defer file.Close()

	if err := h.validator.ValidateHeader(header.Filename, header.Size); err != nil {
		h.handleError(c, err)
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if int64(len(content)) > maxSize {
		h.handleError(c, h.validator.TooLarge())
		return
	}

	body, err := h.service.Analyze(c.Request.Context(), analysis.Request{
		Mode:     mode,
		FileName: header.Filename,
		Content:  content,
		Query:    c.PostForm("query"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// History lists recent analyses, newest first.
func (h *AnalysisHandler) History(c *gin.Context) {
	limit := analysis.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.handleError(c, &validator.ValidationError{
				Code:    "INVALID_LIMIT",
				Message: "limit must be a positive integer",
				Field:   "limit",
			})
			return
		}
		limit = n
	}

	records, err := h.service.History(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if records == nil {
		records = []models.AnalysisRecord{}
	}
	c.JSON(http.StatusOK, HistoryResponse{Records: records, Count: len(records)})
}

// handleError maps validation errors to 400 and everything else to a generic 500.
func (h *AnalysisHandler) handleError(c *gin.Context, err error) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		log.Info("Rejected request",
			logger.String("path", c.Request.URL.Path),
			logger.String("code", verr.Code),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Code, Message: verr.Message})
		return
	}

	log.Error("Request failed",
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "INTERNAL_ERROR",
		Message: "Error processing blood report",
	})
}
