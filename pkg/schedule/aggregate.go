package schedule

import (
	"sort"
	"strconv"
	"strings"

	"github.com/arnavshah/staffing-engine-go/pkg/models"
	"go.uber.org/zap"
)

const (
	defaultPosition = "General"
	defaultSite     = "Unassigned Site"
)

type ticketFacts struct {
	base      models.ScheduleFactRow
	assignees []models.ScheduleFactRow
	seen      map[string]bool
}

// Aggregate folds raw per-ticket facts into recurring rows keyed by
// (staff, position, site, start, end, status). Every call rebuilds the rows
// from scratch.
func Aggregate(facts []models.ScheduleFactRow) []models.RecurringScheduleRow {
	var order []string
	tickets := make(map[string]*ticketFacts)

	for i, f := range facts {
		id := f.TicketID
		if id == "" {
			id = "#" + strconv.Itoa(i)
		}
		t, ok := tickets[id]
		if !ok {
			t = &ticketFacts{base: f, seen: make(map[string]bool)}
			tickets[id] = t
			order = append(order, id)
		}
		if !f.HasActiveAssignment() {
			continue
		}
		name := staffName(f)
		if t.seen[name] {
			continue
		}
		t.seen[name] = true
		t.assignees = append(t.assignees, f)
	}

	b := newRowBuilder()
	for _, id := range order {
		t := tickets[id]
		if len(t.assignees) == 0 {
			b.add(t.base, "", "", models.StatusOpen)
			continue
		}
		status := models.StatusAssigned
		if strings.EqualFold(strings.TrimSpace(t.base.TicketStatus), models.TicketStatusCanceled) {
			status = models.StatusPending
		}
		for _, a := range t.assignees {
			b.add(a, a.StaffID, staffName(a), status)
		}
	}
	return b.rows()
}

func staffName(f models.ScheduleFactRow) string {
	if n := strings.TrimSpace(f.StaffName); n != "" {
		return n
	}
	return strings.TrimSpace(f.StaffID)
}

type rowBuilder struct {
	out   []*models.RecurringScheduleRow
	index map[models.RowKey]int
	days  []map[string]struct{}
	dates []map[string]struct{}
}

func newRowBuilder() *rowBuilder {
	return &rowBuilder{index: make(map[models.RowKey]int)}
}

func (b *rowBuilder) add(f models.ScheduleFactRow, staffID, name string, status models.ShiftStatus) {
	date := NormalizeDate(f.ScheduledDate)
	wd, err := Weekday(date)
	if err != nil {
		zap.L().Warn("schedule: dropping fact with unusable date",
			zap.String("ticket_id", f.TicketID), zap.Error(err))
		return
	}

	position := strings.TrimSpace(f.PositionCode)
	if position == "" {
		position = defaultPosition
	}
	site := strings.TrimSpace(f.SiteName)
	if site == "" {
		site = defaultSite
	}

	key := models.RowKey{
		StaffName:    name,
		PositionType: position,
		SiteName:     site,
		StartTime:    NormalizeTime(f.StartTime),
		EndTime:      NormalizeTime(f.EndTime),
		Status:       status,
	}

	if i, ok := b.index[key]; ok {
		b.days[i][DayCode(wd)] = struct{}{}
		b.dates[i][date] = struct{}{}
		return
	}

	b.index[key] = len(b.out)
	b.out = append(b.out, &models.RecurringScheduleRow{
		StaffID:      staffID,
		StaffName:    name,
		PositionType: position,
		SiteID:       f.SiteID,
		SiteName:     site,
		SiteCode:     strings.TrimSpace(f.SiteCode),
		ClientID:     f.ClientID,
		ClientName:   strings.TrimSpace(f.ClientName),
		StartTime:    key.StartTime,
		EndTime:      key.EndTime,
		Status:       status,
		Blueprint: models.SiteBlueprint{
			AccessNotes:   f.AccessNotes,
			SecurityNotes: f.SecurityNotes,
		},
	})
	b.days = append(b.days, map[string]struct{}{DayCode(wd): {}})
	b.dates = append(b.dates, map[string]struct{}{date: {}})
}

func (b *rowBuilder) rows() []models.RecurringScheduleRow {
	rows := make([]models.RecurringScheduleRow, len(b.out))
	for i, r := range b.out {
		for _, code := range weekOrder {
			if _, ok := b.days[i][code]; ok {
				r.ScheduleDays = append(r.ScheduleDays, code)
			}
		}
		for d := range b.dates[i] {
			r.ScheduledDates = append(r.ScheduledDates, d)
		}
		sort.Strings(r.ScheduledDates)
		r.ID = i + 1
		rows[i] = *r
	}
	return rows
}
