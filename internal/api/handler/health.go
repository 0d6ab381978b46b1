package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cacheStore string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cacheStore string) *HealthHandler {
	return &HealthHandler{cacheStore: cacheStore}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"cache":  h.cacheStore,
	})
}
