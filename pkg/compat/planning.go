// Package compat lets the planning board run against databases that predate
// the planning_status and required_staff_count columns.
package compat

import (
	"context"
	"regexp"
	"sync"

	"github.com/arnavshah/staffing-engine-go/pkg/models"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Mode is the schema variant the shim talks to
type Mode string

const (
	ModeV2     Mode = "v2"
	ModeLegacy Mode = "legacy"
)

// LegacyAdvisory is shown once per process after the first unsaved status change.
const LegacyAdvisory = "Planning status columns are missing from the database; status changes are kept for this session only."

var missingColumnPattern = regexp.MustCompile(`(?i)(column .* does not exist|no such column|undefined column|unknown column|could not find the .* column|SQLSTATE 42703|PGRST204)`)

// IsMissingColumn reports whether err looks like a read or write against a
// column the schema does not have.
func IsMissingColumn(err error) bool {
	if err == nil {
		return false
	}
	return missingColumnPattern.MatchString(err.Error())
}

// PlanningStore is the persistence the shim wraps
type PlanningStore interface {
	FetchPlanningTickets(ctx context.Context, start, end string, withPlanning bool) ([]models.PlanningTicket, error)
	UpdateTicketPlanningStatus(ctx context.Context, ticketID, status string) error
}

// ErrTicketNotFound is returned by a PlanningStore when no ticket has the id.
var ErrTicketNotFound = eris.New("compat: ticket not found")

// UpdateResult describes what happened to a status change
type UpdateResult struct {
	TicketID  string `json:"ticket_id"`
	Status    string `json:"status"`
	Persisted bool   `json:"persisted"`
	Mode      Mode   `json:"mode"`
	Advisory  string `json:"advisory,omitempty"`
}

// PlanningShim switches from v2 to legacy the first time the store reports a
// missing column, and never switches back. In legacy mode status changes are
// kept in memory for the life of the process.
type PlanningShim struct {
	store PlanningStore

	mu        sync.Mutex
	mode      Mode
	advised   bool
	local     map[string]string
	onDegrade func()
}

// NewPlanningShim starts in v2 when the planning status feature is enabled.
func NewPlanningShim(store PlanningStore, featureEnabled bool) *PlanningShim {
	mode := ModeLegacy
	if featureEnabled {
		mode = ModeV2
	}
	return &PlanningShim{store: store, mode: mode, local: make(map[string]string)}
}

// OnDegrade registers a callback run once when the shim falls back to legacy.
func (s *PlanningShim) OnDegrade(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDegrade = fn
}

// Mode returns the current schema mode
func (s *PlanningShim) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *PlanningShim) degrade(err error) {
	s.mu.Lock()
	if s.mode == ModeLegacy {
		s.mu.Unlock()
		return
	}
	s.mode = ModeLegacy
	fn := s.onDegrade
	s.mu.Unlock()

	zap.L().Warn("compat: planning columns missing, switching to legacy schema", zap.Error(err))
	if fn != nil {
		fn()
	}
}

// FetchTickets lists tickets in the range. A missing-column failure on the v2
// read degrades the shim and the read is issued again without those columns.
func (s *PlanningShim) FetchTickets(ctx context.Context, start, end string) ([]models.PlanningTicket, error) {
	if s.Mode() == ModeV2 {
		tickets, err := s.store.FetchPlanningTickets(ctx, start, end, true)
		if err == nil {
			return tickets, nil
		}
		if !IsMissingColumn(err) {
			return nil, eris.Wrap(err, "compat: fetch planning tickets")
		}
		s.degrade(err)
	}

	tickets, err := s.store.FetchPlanningTickets(ctx, start, end, false)
	if err != nil {
		return nil, eris.Wrap(err, "compat: fetch legacy tickets")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range tickets {
		if st, ok := s.local[tickets[i].TicketID]; ok {
			tickets[i].PlanningStatus = st
		}
		if tickets[i].RequiredStaffCount == 0 {
			tickets[i].RequiredStaffCount = 1
		}
	}
	return tickets, nil
}

// UpdatePlanningStatus writes the status in v2 mode. In legacy mode, or when
// the write reveals the columns are missing, the change is only kept locally.
func (s *PlanningShim) UpdatePlanningStatus(ctx context.Context, ticketID, status string) (UpdateResult, error) {
	res := UpdateResult{TicketID: ticketID, Status: status}

	if s.Mode() == ModeV2 {
		err := s.store.UpdateTicketPlanningStatus(ctx, ticketID, status)
		if err == nil {
			res.Persisted = true
			res.Mode = ModeV2
			return res, nil
		}
		if !IsMissingColumn(err) {
			return res, eris.Wrapf(err, "compat: update planning status %s", ticketID)
		}
		s.degrade(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.local[ticketID] = status
	res.Mode = ModeLegacy
	if !s.advised {
		s.advised = true
		res.Advisory = LegacyAdvisory
	}
	return res, nil
}
