package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arnavshah/staffing-engine-go/pkg/compat"
	"github.com/arnavshah/staffing-engine-go/pkg/models"
	"github.com/arnavshah/staffing-engine-go/pkg/report"
	"github.com/arnavshah/staffing-engine-go/pkg/schedule"
	"github.com/arnavshah/staffing-engine-go/pkg/staffing"
)

// maxRangeDays bounds how many days one request may span.
const maxRangeDays = 366

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type rangeQuery struct {
	Start string `form:"start" json:"start" binding:"required"`
	End   string `form:"end" json:"end" binding:"required"`
	schedule.RowFilter
}

// bindRange reads and checks the date range. It writes a 400 and returns
// false when the range is unusable.
func bindRange(c *gin.Context) (staffing.Range, bool) {
	var q rangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return staffing.Range{}, false
	}
	if !checkRange(c, q.Start, q.End) {
		return staffing.Range{}, false
	}
	return staffing.Range{Start: q.Start, End: q.End, Filter: q.RowFilter}, true
}

func checkRange(c *gin.Context, start, end string) bool {
	dates, err := schedule.DateKeys(start, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if len(dates) > maxRangeDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("range spans %d days, at most %d allowed", len(dates), maxRangeDays)})
		return false
	}
	return true
}

// storeFailure reports a persistence failure. Nothing is cached, so the
// client can simply retry.
func storeFailure(c *gin.Context, action string, err error) {
	zap.L().Error("handlers: "+action, zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "Could not " + action})
}

// ScheduleRows returns the recurring schedule rows for a range
func (h *Handler) ScheduleRows(c *gin.Context) {
	r, ok := bindRange(c)
	if !ok {
		return
	}
	rows, dates, err := h.Service.Rows(c.Request.Context(), r)
	if err != nil {
		storeFailure(c, "load schedule", err)
		return
	}
	if rows == nil {
		rows = []models.RecurringScheduleRow{}
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates, "rows": rows})
}

// Coverage returns every coverage cell in the range, gaps flagged
func (h *Handler) Coverage(c *gin.Context) {
	r, ok := bindRange(c)
	if !ok {
		return
	}
	cov, err := h.Service.Coverage(c.Request.Context(), r)
	if err != nil {
		storeFailure(c, "compute coverage", err)
		return
	}

	cells := cov.Cells()
	out := make([]gin.H, 0, len(cells))
	for _, cell := range cells {
		out = append(out, gin.H{
			"client":   cell.Client,
			"site":     cell.Site,
			"position": cell.Position,
			"date":     cell.Date,
			"assigned": cell.Assigned,
			"total":    cell.Total,
			"gap":      cell.IsGap(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"cells": out, "gap_count": len(schedule.Gaps(cov))})
}

// CoverageCell returns the assigned and open rows behind one cell
func (h *Handler) CoverageCell(c *gin.Context) {
	var key struct {
		Client   string `form:"client"`
		Site     string `form:"site" binding:"required"`
		Position string `form:"position" binding:"required"`
		Date     string `form:"date" binding:"required"`
	}
	if err := c.ShouldBindQuery(&key); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !checkRange(c, key.Date, key.Date) {
		return
	}

	detail, err := h.Service.CellDetail(c.Request.Context(), models.CoverageKey{
		Client:   key.Client,
		Site:     key.Site,
		Position: key.Position,
		Date:     schedule.NormalizeDate(key.Date),
	})
	if err != nil {
		storeFailure(c, "load cell detail", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Budget projects labor cost for a range
func (h *Handler) Budget(c *gin.Context) {
	r, ok := bindRange(c)
	if !ok {
		return
	}
	var opts struct {
		Threshold  float64 `form:"overtime_threshold"`
		Multiplier float64 `form:"overtime_multiplier"`
	}
	if err := c.ShouldBindQuery(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.Service.Budget(c.Request.Context(), r, schedule.BudgetOptions{
		OvertimeThreshold:  opts.Threshold,
		OvertimeMultiplier: opts.Multiplier,
	})
	if err != nil {
		storeFailure(c, "project budget", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// StaffingReport exports budget and coverage as an .xlsx workbook
func (h *Handler) StaffingReport(c *gin.Context) {
	r, ok := bindRange(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	summary, err := h.Service.Budget(ctx, r, schedule.BudgetOptions{})
	if err != nil {
		storeFailure(c, "project budget", err)
		return
	}
	cov, err := h.Service.Coverage(ctx, r)
	if err != nil {
		storeFailure(c, "compute coverage", err)
		return
	}

	wb := report.StaffingWorkbook{Start: r.Start, End: r.End, Budget: summary, Coverage: cov.Cells()}
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		zap.L().Error("handlers: render workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="staffing_%s_%s.xlsx"`, r.Start, r.End))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

type autoFillRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

func bindAutoFill(c *gin.Context) (autoFillRequest, bool) {
	var req autoFillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, checkRange(c, req.Start, req.End)
}

// AutoFill assigns eligible staff to open tickets in the range
func (h *Handler) AutoFill(c *gin.Context) {
	req, ok := bindAutoFill(c)
	if !ok {
		return
	}

	res, err := h.Service.AutoFill(c.Request.Context(), req.Start, req.End)
	if err != nil {
		zap.L().Error("handlers: auto-fill", zap.Error(err))
		// assignments written before the failure stay in place
		c.JSON(http.StatusBadGateway, gin.H{"error": "Auto-fill did not complete", "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

// PreviewAutoFill returns the proposals auto-fill would make without writing them
func (h *Handler) PreviewAutoFill(c *gin.Context) {
	req, ok := bindAutoFill(c)
	if !ok {
		return
	}

	res, err := h.Service.PreviewAutoFill(c.Request.Context(), req.Start, req.End)
	if err != nil {
		storeFailure(c, "preview auto-fill", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Tickets lists planning board tickets for a range
func (h *Handler) Tickets(c *gin.Context) {
	r, ok := bindRange(c)
	if !ok {
		return
	}

	shim := h.Service.Planning()
	tickets, err := shim.FetchTickets(c.Request.Context(), r.Start, r.End)
	if err != nil {
		storeFailure(c, "load tickets", err)
		return
	}
	if tickets == nil {
		tickets = []models.PlanningTicket{}
	}
	c.JSON(http.StatusOK, gin.H{"mode": shim.Mode(), "tickets": tickets})
}

// UpdatePlanningStatus sets the planning status of one ticket
func (h *Handler) UpdatePlanningStatus(c *gin.Context) {
	var req struct {
		PlanningStatus string `json:"planning_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Service.Planning().UpdatePlanningStatus(c.Request.Context(), c.Param("id"), req.PlanningStatus)
	if eris.Is(err, compat.ErrTicketNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}
	if err != nil {
		storeFailure(c, "update planning status", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
