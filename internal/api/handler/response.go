package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/timmy/catknow/internal/domain"
	"github.com/timmy/catknow/internal/logger"
	"github.com/timmy/catknow/internal/service"
)

const jsonContentType = "application/json; charset=utf-8"

// respondJSON writes an upstream body verbatim.
func respondJSON(c *gin.Context, body []byte) {
	c.Data(http.StatusOK, jsonContentType, body)
}

// respondError renders err as the {error, code} envelope.
// Only 5xx failures are logged at error level.
func respondError(c *gin.Context, err error) {
	apiErr := domain.AsAPIError(err)
	ctx := c.Request.Context()
	entry := logger.With(logger.Fields{
		logger.FieldStatus: apiErr.Status,
	})
	if apiErr.Status >= http.StatusInternalServerError {
		entry.Error(ctx, "Request failed: code=%s, err=%v", apiErr.Code, err)
	} else {
		entry.Debug(ctx, "Request rejected: code=%s, err=%v", apiErr.Code, err)
	}
	c.AbortWithStatusJSON(apiErr.Status, apiErr.Envelope())
}

// fetchOptions maps request headers onto cache behaviour.
// "Cache-Control: no-cache" (or no-store) skips the response cache entirely.
func fetchOptions(c *gin.Context) service.FetchOptions {
	cc := strings.ToLower(c.GetHeader("Cache-Control"))
	return service.FetchOptions{
		BypassCache: strings.Contains(cc, "no-cache") || strings.Contains(cc, "no-store"),
	}
}
