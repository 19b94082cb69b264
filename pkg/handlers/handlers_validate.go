package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/staffing-engine-go/pkg/schedule"
)

// ValidateRange checks a date range and filter without touching the store
func (h *Handler) ValidateRange(c *gin.Context) {
	var input struct {
		Start  string             `json:"start"`
		End    string             `json:"end"`
		Filter schedule.RowFilter `json:"filter"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if input.Start == "" || input.End == "" {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "start and end are required",
		})
		return
	}

	dates, err := schedule.DateKeys(input.Start, input.End)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"day_count": len(dates),
			"start":     dates[0],
			"end":       dates[len(dates)-1],
			"filter":    input.Filter,
		},
	})
}
