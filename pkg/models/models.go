package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Ticket and assignment status values as stored in the backing tables.
const (
	TicketStatusCanceled     = "CANCELED"
	AssignmentStatusAssigned = "ASSIGNED"
)

// OpenShiftLabel is the display name of a shift nobody is assigned to.
const OpenShiftLabel = "Open Shift"

// ShiftStatus classifies an aggregated schedule row
type ShiftStatus string

const (
	StatusAssigned ShiftStatus = "assigned"
	StatusOpen     ShiftStatus = "open"
	StatusPending  ShiftStatus = "pending"
)

// SiteBlueprint carries the access and security notes of a site
type SiteBlueprint struct {
	AccessNotes   string `json:"access_notes,omitempty"`
	SecurityNotes string `json:"security_notes,omitempty"`
}

// ScheduleFactRow is one ticket x assignment row as fetched from storage.
// A ticket without assignments still produces one row with empty staff fields.
type ScheduleFactRow struct {
	TicketID         string `gorm:"column:ticket_id" json:"ticket_id"`
	SiteID           string `gorm:"column:site_id" json:"site_id"`
	SiteName         string `gorm:"column:site_name" json:"site_name"`
	SiteCode         string `gorm:"column:site_code" json:"site_code"`
	ClientID         string `gorm:"column:client_id" json:"client_id"`
	ClientName       string `gorm:"column:client_name" json:"client_name"`
	PositionCode     string `gorm:"column:position_code" json:"position_code"`
	ScheduledDate    string `gorm:"column:scheduled_date" json:"scheduled_date"`
	StartTime        string `gorm:"column:start_time" json:"start_time"`
	EndTime          string `gorm:"column:end_time" json:"end_time"`
	TicketStatus     string `gorm:"column:ticket_status" json:"ticket_status"`
	AssignmentStatus string `gorm:"column:assignment_status" json:"assignment_status,omitempty"`
	StaffID          string `gorm:"column:staff_id" json:"staff_id,omitempty"`
	StaffName        string `gorm:"column:staff_name" json:"staff_name,omitempty"`
	AccessNotes      string `gorm:"column:access_notes" json:"access_notes,omitempty"`
	SecurityNotes    string `gorm:"column:security_notes" json:"security_notes,omitempty"`
}

// HasActiveAssignment reports whether the row names a staff member whose
// assignment is still in force (status absent or ASSIGNED).
func (f ScheduleFactRow) HasActiveAssignment() bool {
	if f.StaffID == "" && f.StaffName == "" {
		return false
	}
	s := strings.TrimSpace(f.AssignmentStatus)
	return s == "" || strings.EqualFold(s, AssignmentStatusAssigned)
}

// RecurringScheduleRow is the aggregated view of one staff/position/site/time
// combination together with every date it was seen on.
type RecurringScheduleRow struct {
	// ID is positional and changes between rebuilds; use Key for selection.
	ID             int           `json:"id"`
	StaffID        string        `json:"staff_id,omitempty"`
	StaffName      string        `json:"staff_name"`
	PositionType   string        `json:"position_type"`
	SiteID         string        `json:"site_id"`
	SiteName       string        `json:"site_name"`
	SiteCode       string        `json:"site_code,omitempty"`
	ClientID       string        `json:"client_id"`
	ClientName     string        `json:"client_name"`
	StartTime      string        `json:"start_time"`
	EndTime        string        `json:"end_time"`
	Status         ShiftStatus   `json:"status"`
	ScheduleDays   []string      `json:"schedule_days"`
	ScheduledDates []string      `json:"scheduled_dates"`
	Blueprint      SiteBlueprint `json:"blueprint"`
}

// RowKey is the composite identity of a recurring row
type RowKey struct {
	StaffName    string      `json:"staff_name"`
	PositionType string      `json:"position_type"`
	SiteName     string      `json:"site_name"`
	StartTime    string      `json:"start_time"`
	EndTime      string      `json:"end_time"`
	Status       ShiftStatus `json:"status"`
}

// String renders the key in a form usable as a UI selection id.
func (k RowKey) String() string {
	return strings.Join([]string{k.StaffName, k.PositionType, k.SiteName, k.StartTime, k.EndTime, string(k.Status)}, "|")
}

// Key returns the row identity. Open rows have no staff name, so they never
// collide with a real staff member.
func (r RecurringScheduleRow) Key() RowKey {
	return RowKey{
		StaffName:    r.StaffName,
		PositionType: r.PositionType,
		SiteName:     r.SiteName,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Status:       r.Status,
	}
}

// IsOpen reports whether nobody is assigned to the row.
func (r RecurringScheduleRow) IsOpen() bool {
	return r.Status == StatusOpen
}

// DisplayName returns the staff name, or the open shift label for open rows.
func (r RecurringScheduleRow) DisplayName() string {
	if r.IsOpen() {
		return OpenShiftLabel
	}
	return r.StaffName
}

// HasDate reports whether the row was scheduled on the given date key.
func (r RecurringScheduleRow) HasDate(date string) bool {
	for _, d := range r.ScheduledDates {
		if d == date {
			return true
		}
	}
	return false
}

// CoverageKey identifies a coverage cell
type CoverageKey struct {
	Client   string `json:"client"`
	Site     string `json:"site"`
	Position string `json:"position"`
	Date     string `json:"date"`
}

// CoverageCell holds assigned vs required counts for one cell
type CoverageCell struct {
	CoverageKey
	Assigned int `json:"assigned"`
	Total    int `json:"total"`
}

// IsGap reports whether fewer staff are assigned than required.
func (c CoverageCell) IsGap() bool {
	return c.Assigned < c.Total
}

// CellDetail is the drill-down projection of a coverage cell
type CellDetail struct {
	Key        CoverageKey            `json:"key"`
	Assigned   []RecurringScheduleRow `json:"assigned"`
	Unassigned []RecurringScheduleRow `json:"unassigned"`
}

// StaffCostProjection holds the hours and labor cost of one staff member
type StaffCostProjection struct {
	StaffName     string          `json:"staff_name"`
	TotalHours    float64         `json:"total_hours"`
	RegularHours  float64         `json:"regular_hours"`
	OvertimeHours float64         `json:"overtime_hours"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	Cost          decimal.Decimal `json:"cost"`
}

// BudgetSummary aggregates labor cost over a date range
type BudgetSummary struct {
	TotalCost          decimal.Decimal                `json:"total_cost"`
	TotalHours         float64                        `json:"total_hours"`
	TotalOvertimeHours float64                        `json:"total_overtime_hours"`
	HoursByStaff       map[string]float64             `json:"hours_by_staff"`
	Staff              map[string]StaffCostProjection `json:"staff"`
}

// EligibilityRecord states that a staff member may fill a position
type EligibilityRecord struct {
	StaffID      string `gorm:"column:staff_id" json:"staff_id"`
	PositionCode string `gorm:"column:position_code" json:"position_code"`
}

// UnavailabilityRecord is a day-of-week rule for a staff member. Only records
// with IsAvailable=false block assignment.
type UnavailabilityRecord struct {
	StaffID     string       `json:"staff_id"`
	Weekday     time.Weekday `json:"weekday"`
	IsAvailable bool         `json:"is_available"`
}

// OpenTicket is a ticket with no active assignment, as seen by the matcher
type OpenTicket struct {
	TicketID      string `json:"ticket_id"`
	ScheduledDate string `json:"scheduled_date"`
	PositionCode  string `json:"position_code"`
	SiteName      string `json:"site_name"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

// AssignmentProposal pairs a ticket with the staff member chosen for it
type AssignmentProposal struct {
	TicketID     string `json:"ticket_id"`
	StaffID      string `json:"staff_id"`
	PositionCode string `json:"position_code"`
}

// ConflictReason represents why a ticket could not be filled
type ConflictReason struct {
	TicketID string   `json:"ticket_id"`
	Date     string   `json:"date"`
	Position string   `json:"position"`
	Reasons  []string `json:"reasons"`
}

// AutoFillResult is the outcome of one auto-fill run
type AutoFillResult struct {
	OpenTickets int                  `json:"open_tickets"`
	Filled      int                  `json:"filled"`
	Proposals   []AssignmentProposal `json:"proposals"`
	Conflicts   []ConflictReason     `json:"conflicts,omitempty"`
}

// PlanningTicket is a ticket as listed on the planning board. PlanningStatus
// and RequiredStaffCount come from optional columns.
type PlanningTicket struct {
	TicketID           string `gorm:"column:ticket_id" json:"ticket_id"`
	SiteName           string `gorm:"column:site_name" json:"site_name"`
	PositionCode       string `gorm:"column:position_code" json:"position_code"`
	ScheduledDate      string `gorm:"column:scheduled_date" json:"scheduled_date"`
	StartTime          string `gorm:"column:start_time" json:"start_time"`
	EndTime            string `gorm:"column:end_time" json:"end_time"`
	Status             string `gorm:"column:status" json:"status"`
	PlanningStatus     string `gorm:"column:planning_status" json:"planning_status,omitempty"`
	RequiredStaffCount int    `gorm:"column:required_staff_count" json:"required_staff_count"`
}
