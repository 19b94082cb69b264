package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/staffing-engine-go/pkg/compat"
	"github.com/arnavshah/staffing-engine-go/pkg/models"
)

// Store is the tabular data access the staffing engine reads and writes through.
type Store struct {
	DB *gorm.DB
}

// NewStore wraps an open database handle
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

const factColumns = `t.id AS ticket_id,
	t.site_id AS site_id,
	COALESCE(si.name, '') AS site_name,
	COALESCE(si.code, '') AS site_code,
	COALESCE(si.client_id, '') AS client_id,
	COALESCE(c.name, '') AS client_name,
	COALESCE(t.position_code, '') AS position_code,
	t.scheduled_date AS scheduled_date,
	COALESCE(t.start_time, '') AS start_time,
	COALESCE(t.end_time, '') AS end_time,
	COALESCE(t.status, '') AS ticket_status,
	COALESCE(a.status, '') AS assignment_status,
	COALESCE(a.staff_id, '') AS staff_id,
	COALESCE(st.name, '') AS staff_name,
	COALESCE(si.access_notes, '') AS access_notes,
	COALESCE(si.security_notes, '') AS security_notes`

// FetchScheduleFacts returns one row per ticket and assignment for tickets
// scheduled between start and end inclusive. Tickets without assignments
// come back once with empty staff columns.
func (s *Store) FetchScheduleFacts(ctx context.Context, start, end string) ([]models.ScheduleFactRow, error) {
	var rows []models.ScheduleFactRow
	err := s.DB.WithContext(ctx).
		Table("tickets AS t").
		Select(factColumns).
		Joins("LEFT JOIN sites si ON si.id = t.site_id").
		Joins("LEFT JOIN clients c ON c.id = si.client_id").
		Joins("LEFT JOIN assignments a ON a.ticket_id = t.id").
		Joins("LEFT JOIN staff st ON st.id = a.staff_id").
		Where("t.scheduled_date BETWEEN ? AND ?", start, end).
		Order("t.scheduled_date, t.start_time, t.id, a.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, eris.Wrap(err, "database: fetch schedule facts")
	}
	return rows, nil
}

// FetchEligibility returns staff/position pairs in the order they were granted.
func (s *Store) FetchEligibility(ctx context.Context) ([]models.EligibilityRecord, error) {
	var rows []models.EligibilityRecord
	err := s.DB.WithContext(ctx).
		Model(&StaffPosition{}).
		Select("staff_id, position_code").
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, eris.Wrap(err, "database: fetch eligibility")
	}
	return rows, nil
}

// FetchUnavailability returns every day-of-week availability rule.
func (s *Store) FetchUnavailability(ctx context.Context) ([]models.UnavailabilityRecord, error) {
	var rows []StaffAvailability
	if err := s.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, eris.Wrap(err, "database: fetch unavailability")
	}
	out := make([]models.UnavailabilityRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.UnavailabilityRecord{
			StaffID:     r.StaffID,
			Weekday:     time.Weekday(r.DayOfWeek),
			IsAvailable: r.IsAvailable,
		})
	}
	return out, nil
}

// FetchPayRates maps staff names to hourly rates.
func (s *Store) FetchPayRates(ctx context.Context) (map[string]float64, error) {
	var staff []Staff
	if err := s.DB.WithContext(ctx).Select("name, hourly_rate").Find(&staff).Error; err != nil {
		return nil, eris.Wrap(err, "database: fetch pay rates")
	}
	rates := make(map[string]float64, len(staff))
	for _, st := range staff {
		rates[st.Name] = st.HourlyRate
	}
	return rates, nil
}

// InsertAssignment adds an ASSIGNED row for the staff member on the ticket.
func (s *Store) InsertAssignment(ctx context.Context, ticketID, staffID, positionCode string) error {
	a := Assignment{
		ID:           uuid.New().String(),
		TicketID:     ticketID,
		StaffID:      staffID,
		PositionCode: positionCode,
		Status:       models.AssignmentStatusAssigned,
	}
	if err := s.DB.WithContext(ctx).Create(&a).Error; err != nil {
		return eris.Wrapf(err, "database: insert assignment for ticket %s", ticketID)
	}
	return nil
}

// UpdateTicketPlanningStatus sets planning_status on a ticket. It fails with
// the driver's missing-column error on a legacy schema.
func (s *Store) UpdateTicketPlanningStatus(ctx context.Context, ticketID, status string) error {
	res := s.DB.WithContext(ctx).
		Table("tickets").
		Where("id = ?", ticketID).
		Update("planning_status", status)
	if res.Error != nil {
		return eris.Wrapf(res.Error, "database: update planning status %s", ticketID)
	}
	if res.RowsAffected == 0 {
		return eris.Wrapf(compat.ErrTicketNotFound, "database: update planning status %s", ticketID)
	}
	return nil
}

const planningBaseColumns = `t.id AS ticket_id,
	COALESCE(si.name, '') AS site_name,
	COALESCE(t.position_code, '') AS position_code,
	t.scheduled_date AS scheduled_date,
	COALESCE(t.start_time, '') AS start_time,
	COALESCE(t.end_time, '') AS end_time,
	COALESCE(t.status, '') AS status`

const planningV2Columns = `,
	COALESCE(t.planning_status, '') AS planning_status,
	COALESCE(t.required_staff_count, 1) AS required_staff_count`

// FetchPlanningTickets lists tickets for the planning board. withPlanning
// adds the planning_status and required_staff_count columns.
func (s *Store) FetchPlanningTickets(ctx context.Context, start, end string, withPlanning bool) ([]models.PlanningTicket, error) {
	cols := planningBaseColumns
	if withPlanning {
		cols += planningV2Columns
	}
	var rows []models.PlanningTicket
	err := s.DB.WithContext(ctx).
		Table("tickets AS t").
		Select(cols).
		Joins("LEFT JOIN sites si ON si.id = t.site_id").
		Where("t.scheduled_date BETWEEN ? AND ?", start, end).
		Order("t.scheduled_date, t.start_time, t.id").
		Scan(&rows).Error
	if err != nil {
		return nil, eris.Wrap(err, "database: fetch planning tickets")
	}
	return rows, nil
}

// RecordAutoFill adds one run to the day's auto-fill totals using a single upsert.
func (s *Store) RecordAutoFill(ctx context.Context, runDate string, open, filled int) error {
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "run_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"runs":          gorm.Expr("autofill_usage.runs + ?", 1),
			"open_shifts":   gorm.Expr("autofill_usage.open_shifts + ?", open),
			"filled_shifts": gorm.Expr("autofill_usage.filled_shifts + ?", filled),
		}),
	}).Create(&AutoFillUsage{
		RunDate:      runDate,
		Runs:         1,
		OpenShifts:   open,
		FilledShifts: filled,
	}).Error
	return eris.Wrap(err, "database: record auto-fill")
}

// AutoFillHistory returns the most recent daily auto-fill totals.
func (s *Store) AutoFillHistory(ctx context.Context, limit int) ([]AutoFillUsage, error) {
	var usage []AutoFillUsage
	err := s.DB.WithContext(ctx).Order("run_date desc").Limit(limit).Find(&usage).Error
	if err != nil {
		return nil, eris.Wrap(err, "database: auto-fill history")
	}
	return usage, nil
}
