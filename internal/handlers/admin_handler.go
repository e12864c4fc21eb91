package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrovision/cattle-api/internal/models"
)

// AdminUsers lists every account, newest first.
func (h *Handler) AdminUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "listing users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// AdminReports lists every report, newest first.
func (h *Handler) AdminReports(c *gin.Context) {
	reports, err := h.Reports.ListAll(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "listing reports")
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reports": reports})
}

// AdminStats returns the dashboard aggregates: totals, the healthy vs
// diseased split, the per-disease distribution and recent activity.
func (h *Handler) AdminStats(c *gin.Context) {
	ctx := c.Request.Context()

	totalUsers, err := h.Users.Count(ctx)
	if err != nil {
		h.internalError(c, err, "counting users")
		return
	}
	totalReports, err := h.Reports.Count(ctx)
	if err != nil {
		h.internalError(c, err, "counting reports")
		return
	}
	healthyCount, err := h.Reports.CountByStatus(ctx, models.StatusHealthy)
	if err != nil {
		h.internalError(c, err, "counting healthy reports")
		return
	}
	diseasedCount, err := h.Reports.CountByStatus(ctx, models.StatusDiseased)
	if err != nil {
		h.internalError(c, err, "counting diseased reports")
		return
	}
	distribution, err := h.Reports.DiseaseDistribution(ctx)
	if err != nil {
		h.internalError(c, err, "aggregating disease distribution")
		return
	}
	if distribution == nil {
		distribution = []models.DiseaseCount{}
	}
	recent, err := h.Reports.Recent(ctx, 10)
	if err != nil {
		h.internalError(c, err, "listing recent reports")
		return
	}
	if recent == nil {
		recent = []models.ReportSummary{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"totalUsers":          totalUsers,
			"totalReports":        totalReports,
			"healthyCount":        healthyCount,
			"diseasedCount":       diseasedCount,
			"diseaseDistribution": distribution,
			"recentReports":       recent,
		},
	})
}
