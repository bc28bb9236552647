package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"videosplit/internal/api/middleware"
	"videosplit/internal/api/v1/services"
)

// UsageHandler handles per-account usage reporting.
type UsageHandler struct {
	service services.UsageService
}

func NewUsageHandler(service services.UsageService) *UsageHandler {
	return &UsageHandler{service: service}
}

// Summary handles GET /api/v1/usage
func (h *UsageHandler) Summary(c *gin.Context) {
	account := middleware.AccountFrom(c)

	response, err := h.service.Summary(c.Request.Context(), account)
	if err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}
	c.JSON(http.StatusOK, response)
}

// Recent handles GET /api/v1/usage/recent
func (h *UsageHandler) Recent(c *gin.Context) {
	account := middleware.AccountFrom(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := h.service.Recent(c.Request.Context(), account, limit)
	if err != nil {
		middleware.HandleError(c, mapCoreError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
