package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arnavshah/staffing-engine-go/pkg/models"
	"github.com/arnavshah/staffing-engine-go/pkg/schedule"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// AssignmentWriter persists one assignment per matched ticket
type AssignmentWriter interface {
	InsertAssignment(ctx context.Context, ticketID, staffID, positionCode string) error
}

// Scheduler handles the logic of assigning staff to open tickets.
// It is greedy first-fit: tickets are served in the order given and each
// takes the first eligible staff member that passes every check.
// A Scheduler holds no per-run state and can be reused.
type Scheduler struct {
	EligibleByPosition map[string][]string
	Unavailable        map[string]bool
}

// Bookings guards double-booking inside one run: date -> staff id.
type Bookings map[string]map[string]bool

// IsBooked checks if a staff member was already given a ticket on the date
func (b Bookings) IsBooked(staffID, date string) bool {
	return b[date][staffID]
}

// Book records a staff member as taken for the date
func (b Bookings) Book(staffID, date string) {
	if b[date] == nil {
		b[date] = make(map[string]bool)
	}
	b[date][staffID] = true
}

// NewScheduler creates a new scheduler instance
func NewScheduler(eligibility []models.EligibilityRecord, unavailability []models.UnavailabilityRecord) *Scheduler {
	s := &Scheduler{
		EligibleByPosition: make(map[string][]string),
		Unavailable:        make(map[string]bool),
	}

	seen := make(map[string]bool)
	for _, e := range eligibility {
		pos := strings.TrimSpace(e.PositionCode)
		if pos == "" || e.StaffID == "" || seen[pos+"\x00"+e.StaffID] {
			continue
		}
		seen[pos+"\x00"+e.StaffID] = true
		s.EligibleByPosition[pos] = append(s.EligibleByPosition[pos], e.StaffID)
	}

	for _, u := range unavailability {
		if !u.IsAvailable {
			s.Unavailable[blackoutKey(u.StaffID, u.Weekday)] = true
		}
	}
	return s
}

func blackoutKey(staffID string, wd time.Weekday) string {
	return staffID + ":" + strconv.Itoa(int(wd))
}

// IsUnavailable checks if a staff member blacked out the weekday
func (s *Scheduler) IsUnavailable(staffID string, wd time.Weekday) bool {
	return s.Unavailable[blackoutKey(staffID, wd)]
}

// Pick returns the first eligible staff member for the ticket who is not yet
// in booked. When nobody fits, the reasons explain why.
func (s *Scheduler) Pick(t models.OpenTicket, booked Bookings) (string, []string) {
	pos := strings.TrimSpace(t.PositionCode)
	if pos == "" {
		return "", []string{"ticket has no position code"}
	}
	wd, err := schedule.Weekday(t.ScheduledDate)
	if err != nil {
		return "", []string{"ticket has an invalid scheduled date"}
	}

	eligible := s.EligibleByPosition[pos]
	if len(eligible) == 0 {
		return "", []string{fmt.Sprintf("no staff eligible for position %s", pos)}
	}

	unavailableCount := 0
	bookedCount := 0
	for _, staffID := range eligible {
		if s.IsUnavailable(staffID, wd) {
			unavailableCount++
			continue
		}
		if booked.IsBooked(staffID, t.ScheduledDate) {
			bookedCount++
			continue
		}
		return staffID, nil
	}

	var reasons []string
	if unavailableCount > 0 {
		reasons = append(reasons, fmt.Sprintf("%d staff unavailable on %s", unavailableCount, schedule.DayCode(wd)))
	}
	if bookedCount > 0 {
		reasons = append(reasons, fmt.Sprintf("%d staff already booked on %s", bookedCount, t.ScheduledDate))
	}
	return "", reasons
}

// Plan matches tickets without writing anything
func (s *Scheduler) Plan(tickets []models.OpenTicket) models.AutoFillResult {
	res, _ := s.run(context.Background(), tickets, nil)
	return res
}

// AutoFill matches tickets and writes each assignment as soon as it is chosen.
// A failed insert stops the run; assignments written before it stay in place
// and the partial result is returned alongside the error.
func (s *Scheduler) AutoFill(ctx context.Context, w AssignmentWriter, tickets []models.OpenTicket) (models.AutoFillResult, error) {
	return s.run(ctx, tickets, w)
}

func (s *Scheduler) run(ctx context.Context, tickets []models.OpenTicket, w AssignmentWriter) (models.AutoFillResult, error) {
	res := models.AutoFillResult{
		OpenTickets: len(tickets),
		Proposals:   []models.AssignmentProposal{},
	}
	booked := make(Bookings)

	for _, t := range tickets {
		staffID, reasons := s.Pick(t, booked)
		if staffID == "" {
			res.Conflicts = append(res.Conflicts, models.ConflictReason{
				TicketID: t.TicketID,
				Date:     t.ScheduledDate,
				Position: t.PositionCode,
				Reasons:  reasons,
			})
			continue
		}

		p := models.AssignmentProposal{
			TicketID:     t.TicketID,
			StaffID:      staffID,
			PositionCode: strings.TrimSpace(t.PositionCode),
		}
		if w != nil {
			if err := w.InsertAssignment(ctx, p.TicketID, p.StaffID, p.PositionCode); err != nil {
				return res, eris.Wrapf(err, "scheduler: assign ticket %s", p.TicketID)
			}
			zap.L().Debug("scheduler: ticket filled",
				zap.String("ticket_id", p.TicketID), zap.String("staff_id", p.StaffID))
		}
		booked.Book(staffID, t.ScheduledDate)
		res.Proposals = append(res.Proposals, p)
		res.Filled++
	}

	return res, nil
}

// OpenTickets returns the tickets that have no active assignment, in the
// order they were fetched. Tickets without a position code are skipped.
func OpenTickets(facts []models.ScheduleFactRow) []models.OpenTicket {
	var order []string
	tickets := make(map[string]models.OpenTicket)
	active := make(map[string]int)

	for _, f := range facts {
		if f.TicketID == "" {
			continue
		}
		if _, ok := tickets[f.TicketID]; !ok {
			order = append(order, f.TicketID)
			tickets[f.TicketID] = models.OpenTicket{
				TicketID:      f.TicketID,
				ScheduledDate: schedule.NormalizeDate(f.ScheduledDate),
				PositionCode:  strings.TrimSpace(f.PositionCode),
				SiteName:      f.SiteName,
				StartTime:     schedule.NormalizeTime(f.StartTime),
				EndTime:       schedule.NormalizeTime(f.EndTime),
			}
		}
		if f.HasActiveAssignment() {
			active[f.TicketID]++
		}
	}

	var open []models.OpenTicket
	for _, id := range order {
		if active[id] == 0 && tickets[id].PositionCode != "" {
			open = append(open, tickets[id])
		}
	}
	return open
}
