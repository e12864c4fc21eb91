package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrovision/cattle-api/internal/middleware"
	"github.com/agrovision/cattle-api/internal/models"
)

// MyReports lists the caller's reports, newest first.
func (h *Handler) MyReports(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	reports, err := h.Reports.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, err, "listing reports")
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reports": reports})
}
