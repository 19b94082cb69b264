package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AutoFillUsage returns the last 30 days of auto-fill activity
func (h *Handler) AutoFillUsage(c *gin.Context) {
	usage, err := h.Store.AutoFillHistory(c.Request.Context(), 30)
	if err != nil {
		zap.L().Error("handlers: auto-fill usage", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	var runs, open, filled int64
	for _, u := range usage {
		runs += int64(u.Runs)
		open += int64(u.OpenShifts)
		filled += int64(u.FilledShifts)
	}

	c.JSON(http.StatusOK, gin.H{
		"usage_history": usage,
		"totals": gin.H{
			"runs":          runs,
			"open_shifts":   open,
			"filled_shifts": filled,
		},
	})
}
