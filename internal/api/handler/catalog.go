package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/catknow/internal/service"
)

// CatalogHandler serves the read-only catalog proxy routes.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
// Parameters:
//   - catalog: cache-through catalog service.
// Returns:
//   - *CatalogHandler: initialized handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories handles GET /api/categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	body, err := h.catalog.Categories(c.Request.Context(), fetchOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, body)
}

// ListCats handles GET /api/cats.
// Query: page (default 0), limit (1..100, default 10), category_ids, has_breeds.
func (h *CatalogHandler) ListCats(c *gin.Context) {
	query, err := service.ParseImageQuery(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := h.catalog.SearchImages(c.Request.Context(), query, fetchOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, body)
}

// GetCat handles GET /api/cats/:id.
func (h *CatalogHandler) GetCat(c *gin.Context) {
	body, err := h.catalog.ImageByID(c.Request.Context(), c.Param("id"), fetchOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, body)
}
