package schedule

import (
	"sort"
	"strings"

	"github.com/arnavshah/staffing-engine-go/pkg/models"
)

// RowFilter narrows aggregated rows the way the staffing board filters do.
// Empty fields match everything.
type RowFilter struct {
	Search   string `form:"q" json:"q,omitempty"`
	Site     string `form:"site" json:"site,omitempty"`
	Position string `form:"position" json:"position,omitempty"`
	Staff    string `form:"staff" json:"staff,omitempty"`
}

// FilterRows returns the rows matching every non-empty filter field.
func FilterRows(rows []models.RecurringScheduleRow, f RowFilter) []models.RecurringScheduleRow {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []models.RecurringScheduleRow
	for _, r := range rows {
		if f.Site != "" && !strings.EqualFold(f.Site, r.SiteName) && f.Site != r.SiteID {
			continue
		}
		if f.Position != "" && !strings.EqualFold(f.Position, r.PositionType) {
			continue
		}
		if f.Staff != "" && !strings.EqualFold(f.Staff, r.DisplayName()) && f.Staff != r.StaffID {
			continue
		}
		if search != "" && !matchesSearch(r, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r models.RecurringScheduleRow, needle string) bool {
	for _, field := range []string{r.DisplayName(), r.SiteName, r.SiteCode, r.PositionType, r.ClientName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// CoverageMap holds one cell per (client, site, position, date) that has at
// least one shift. Missing keys mean no data, not a gap.
type CoverageMap map[models.CoverageKey]models.CoverageCell

// Coverage counts required and assigned staff per cell over the visible dates.
// Each row contributes at most once per date it owns.
func Coverage(rows []models.RecurringScheduleRow, visibleDates []string) CoverageMap {
	visible := dateSet(visibleDates)
	cov := make(CoverageMap)
	for _, r := range rows {
		for _, d := range r.ScheduledDates {
			if _, ok := visible[d]; !ok {
				continue
			}
			key := models.CoverageKey{Client: r.ClientName, Site: r.SiteName, Position: r.PositionType, Date: d}
			cell := cov[key]
			cell.CoverageKey = key
			cell.Total++
			if !r.IsOpen() {
				cell.Assigned++
			}
			cov[key] = cell
		}
	}
	return cov
}

// Cells returns the cells ordered by date, client, site and position.
func (c CoverageMap) Cells() []models.CoverageCell {
	cells := make([]models.CoverageCell, 0, len(c))
	for _, cell := range c {
		cells = append(cells, cell)
	}
	sortCells(cells)
	return cells
}

// Gaps returns the cells with fewer assigned than required staff.
func Gaps(c CoverageMap) []models.CoverageCell {
	var gaps []models.CoverageCell
	for _, cell := range c {
		if cell.IsGap() {
			gaps = append(gaps, cell)
		}
	}
	sortCells(gaps)
	return gaps
}

func sortCells(cells []models.CoverageCell) {
	sort.Slice(cells, func(i, j int) bool {
		a, b := cells[i], cells[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		if a.Site != b.Site {
			return a.Site < b.Site
		}
		return a.Position < b.Position
	})
}

// DrillDown lists the rows behind a coverage cell, split by whether someone
// is assigned. Rows match on site, position and date.
func DrillDown(rows []models.RecurringScheduleRow, key models.CoverageKey) models.CellDetail {
	detail := models.CellDetail{
		Key:        key,
		Assigned:   []models.RecurringScheduleRow{},
		Unassigned: []models.RecurringScheduleRow{},
	}
	for _, r := range rows {
		if r.SiteName != key.Site || r.PositionType != key.Position || !r.HasDate(key.Date) {
			continue
		}
		if r.IsOpen() {
			detail.Unassigned = append(detail.Unassigned, r)
		} else {
			detail.Assigned = append(detail.Assigned, r)
		}
	}
	return detail
}
