// Package staffing ties the schedule projections and the auto-fill matcher to
// the backing store. Every projection is recomputed from a fresh fetch.
package staffing

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arnavshah/staffing-engine-go/pkg/compat"
	"github.com/arnavshah/staffing-engine-go/pkg/metrics"
	"github.com/arnavshah/staffing-engine-go/pkg/models"
	"github.com/arnavshah/staffing-engine-go/pkg/schedule"
	"github.com/arnavshah/staffing-engine-go/pkg/scheduler"
)

// Store is everything the service needs from persistence
type Store interface {
	compat.PlanningStore
	scheduler.AssignmentWriter
	FetchScheduleFacts(ctx context.Context, start, end string) ([]models.ScheduleFactRow, error)
	FetchEligibility(ctx context.Context) ([]models.EligibilityRecord, error)
	FetchUnavailability(ctx context.Context) ([]models.UnavailabilityRecord, error)
	FetchPayRates(ctx context.Context) (map[string]float64, error)
	RecordAutoFill(ctx context.Context, runDate string, open, filled int) error
}

// Range is an inclusive date range plus the board filters
type Range struct {
	Start  string
	End    string
	Filter schedule.RowFilter
}

// Service runs the staffing engine against a store
type Service struct {
	store  Store
	shim   *compat.PlanningShim
	budget schedule.BudgetOptions
	now    func() time.Time
}

// NewService builds a service. planningStatus selects the initial schema mode.
func NewService(store Store, planningStatus bool, budget schedule.BudgetOptions) *Service {
	shim := compat.NewPlanningShim(store, planningStatus)
	metrics.RecordSchemaMode(string(shim.Mode()))
	shim.OnDegrade(func() { metrics.RecordSchemaMode(string(compat.ModeLegacy)) })
	return &Service{store: store, shim: shim, budget: budget, now: time.Now}
}

// Planning exposes the schema compatibility shim
func (s *Service) Planning() *compat.PlanningShim {
	return s.shim
}

// BudgetOptions returns the configured overtime rule
func (s *Service) BudgetOptions() schedule.BudgetOptions {
	return s.budget
}

// Rows fetches facts for the range and aggregates them, applying the filter.
// The visible date keys of the range are returned alongside.
func (s *Service) Rows(ctx context.Context, r Range) ([]models.RecurringScheduleRow, []string, error) {
	dates, err := schedule.DateKeys(r.Start, r.End)
	if err != nil {
		return nil, nil, err
	}
	facts, err := s.store.FetchScheduleFacts(ctx, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, nil, err
	}
	rows := schedule.FilterRows(schedule.Aggregate(facts), r.Filter)
	return rows, dates, nil
}

// Coverage returns the coverage map for the range.
func (s *Service) Coverage(ctx context.Context, r Range) (schedule.CoverageMap, error) {
	rows, dates, err := s.Rows(ctx, r)
	if err != nil {
		return nil, err
	}
	cov := schedule.Coverage(rows, dates)
	metrics.RecordCoverageGaps(len(schedule.Gaps(cov)))
	return cov, nil
}

// CellDetail returns the rows behind one coverage cell.
func (s *Service) CellDetail(ctx context.Context, key models.CoverageKey) (models.CellDetail, error) {
	rows, _, err := s.Rows(ctx, Range{Start: key.Date, End: key.Date})
	if err != nil {
		return models.CellDetail{}, err
	}
	return schedule.DrillDown(rows, key), nil
}

// Budget projects labor cost for the range. A zero opts uses the configured rule.
func (s *Service) Budget(ctx context.Context, r Range, opts schedule.BudgetOptions) (models.BudgetSummary, error) {
	if opts.OvertimeThreshold <= 0 {
		opts.OvertimeThreshold = s.budget.OvertimeThreshold
	}
	if opts.OvertimeMultiplier <= 0 {
		opts.OvertimeMultiplier = s.budget.OvertimeMultiplier
	}
	rows, dates, err := s.Rows(ctx, r)
	if err != nil {
		return models.BudgetSummary{}, err
	}
	rates, err := s.store.FetchPayRates(ctx)
	if err != nil {
		return models.BudgetSummary{}, err
	}
	return schedule.Budget(rows, dates, rates, opts), nil
}

// matcher loads open tickets and builds a scheduler from fresh eligibility
// and availability data.
func (s *Service) matcher(ctx context.Context, start, end string) (*scheduler.Scheduler, []models.OpenTicket, error) {
	dates, err := schedule.DateKeys(start, end)
	if err != nil {
		return nil, nil, err
	}
	facts, err := s.store.FetchScheduleFacts(ctx, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, nil, err
	}

	var elig []models.EligibilityRecord
	var unavail []models.UnavailabilityRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		elig, err = s.store.FetchEligibility(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		unavail, err = s.store.FetchUnavailability(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "staffing: load matcher inputs")
	}

	return scheduler.NewScheduler(elig, unavail), scheduler.OpenTickets(facts), nil
}

// PreviewAutoFill computes proposals for the range without writing them.
func (s *Service) PreviewAutoFill(ctx context.Context, start, end string) (models.AutoFillResult, error) {
	m, open, err := s.matcher(ctx, start, end)
	if err != nil {
		return models.AutoFillResult{}, err
	}
	return m.Plan(open), nil
}

// AutoFill assigns staff to open tickets in the range. Assignments written
// before a failure are kept; the partial result is returned with the error.
func (s *Service) AutoFill(ctx context.Context, start, end string) (models.AutoFillResult, error) {
	m, open, err := s.matcher(ctx, start, end)
	if err != nil {
		return models.AutoFillResult{}, err
	}

	res, runErr := m.AutoFill(ctx, s.store, open)
	metrics.RecordAutoFill(res.OpenTickets, res.Filled, runErr != nil)

	if err := s.store.RecordAutoFill(ctx, s.now().Format(schedule.DateLayout), res.OpenTickets, res.Filled); err != nil {
		zap.L().Warn("staffing: could not record auto-fill usage", zap.Error(err))
	}

	zap.L().Info("staffing: auto-fill finished",
		zap.String("start", start), zap.String("end", end),
		zap.Int("open", res.OpenTickets), zap.Int("filled", res.Filled),
		zap.Bool("partial", runErr != nil))

	return res, runErr
}
