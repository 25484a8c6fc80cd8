package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Blood Test Report Analyser API is running",
		"version": Version,
		"status":  "Healthy",
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"services": gin.H{
			"api":             "running",
			"ai_agents":       "ready",
			"file_processing": "ready",
		},
	})
}
