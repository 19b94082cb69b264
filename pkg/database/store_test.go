package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/staffing-engine-go/pkg/compat"
	"github.com/arnavshah/staffing-engine-go/pkg/config"
	"github.com/arnavshah/staffing-engine-go/pkg/models"
)

func newTestStore(t *testing.T, planningColumns bool) *Store {
	t.Helper()
	db, err := InitDB(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db"), MigratePlanningColumns: planningColumns})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db)
}

func seed(t *testing.T, s *Store, values ...any) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, s.DB.Create(v).Error)
	}
}

func seedSchedule(t *testing.T, s *Store) {
	t.Helper()
	seed(t, s,
		&Client{ID: "c1", Name: "Acme"},
		&Site{ID: "site1", ClientID: "c1", Name: "HQ", Code: "HQ-01", AccessNotes: "badge at desk"},
		&Staff{ID: "s1", Name: "Alice", HourlyRate: 20},
		&Staff{ID: "s2", Name: "Bob"},
		&LegacyTicket{ID: "t1", SiteID: "site1", PositionCode: "FLOOR", ScheduledDate: "2024-01-01", StartTime: "09:00:00", EndTime: "17:00:00", Status: "SCHEDULED"},
		&LegacyTicket{ID: "t2", SiteID: "site1", PositionCode: "FLOOR", ScheduledDate: "2024-01-02", StartTime: "09:00:00", EndTime: "17:00:00", Status: "SCHEDULED"},
		&LegacyTicket{ID: "t3", SiteID: "site1", PositionCode: "FLOOR", ScheduledDate: "2024-02-01", StartTime: "09:00:00", EndTime: "17:00:00", Status: "SCHEDULED"},
		&Assignment{ID: "a1", TicketID: "t1", StaffID: "s1", PositionCode: "FLOOR", Status: "ASSIGNED"},
	)
}

func TestFetchScheduleFacts(t *testing.T) {
	s := newTestStore(t, true)
	seedSchedule(t, s)

	facts, err := s.FetchScheduleFacts(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, facts, 2)

	assert.Equal(t, "t1", facts[0].TicketID)
	assert.Equal(t, "Alice", facts[0].StaffName)
	assert.Equal(t, "ASSIGNED", facts[0].AssignmentStatus)
	assert.Equal(t, "Acme", facts[0].ClientName)
	assert.Equal(t, "HQ", facts[0].SiteName)
	assert.Equal(t, "badge at desk", facts[0].AccessNotes)

	assert.Equal(t, "t2", facts[1].TicketID)
	assert.Empty(t, facts[1].StaffID)
	assert.False(t, facts[1].HasActiveAssignment())
}

func TestEligibilityAndAvailability(t *testing.T) {
	s := newTestStore(t, true)
	seed(t, s,
		&StaffPosition{StaffID: "s2", PositionCode: "FLOOR"},
		&StaffPosition{StaffID: "s1", PositionCode: "FLOOR"},
		&StaffAvailability{StaffID: "s1", DayOfWeek: int(time.Monday), IsAvailable: false},
	)

	elig, err := s.FetchEligibility(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.EligibilityRecord{
		{StaffID: "s2", PositionCode: "FLOOR"},
		{StaffID: "s1", PositionCode: "FLOOR"},
	}, elig)

	unavail, err := s.FetchUnavailability(context.Background())
	require.NoError(t, err)
	require.Len(t, unavail, 1)
	assert.Equal(t, time.Monday, unavail[0].Weekday)
	assert.False(t, unavail[0].IsAvailable)
}

func TestFetchPayRates(t *testing.T) {
	s := newTestStore(t, true)
	seedSchedule(t, s)

	rates, err := s.FetchPayRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20.0, rates["Alice"])
	assert.Equal(t, 0.0, rates["Bob"])
}

func TestInsertAssignment(t *testing.T) {
	s := newTestStore(t, true)
	seedSchedule(t, s)

	require.NoError(t, s.InsertAssignment(context.Background(), "t2", "s2", "FLOOR"))

	facts, err := s.FetchScheduleFacts(context.Background(), "2024-01-02", "2024-01-02")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "Bob", facts[0].StaffName)
	assert.True(t, facts[0].HasActiveAssignment())
}

func TestRecordAutoFillUpserts(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	require.NoError(t, s.RecordAutoFill(ctx, "2024-01-01", 4, 3))
	require.NoError(t, s.RecordAutoFill(ctx, "2024-01-01", 2, 1))
	require.NoError(t, s.RecordAutoFill(ctx, "2024-01-02", 1, 0))

	usage, err := s.AutoFillHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "2024-01-02", usage[0].RunDate)
	assert.Equal(t, 2, usage[1].Runs)
	assert.Equal(t, 6, usage[1].OpenShifts)
	assert.Equal(t, 4, usage[1].FilledShifts)
}

func TestPlanningStatusV2(t *testing.T) {
	s := newTestStore(t, true)
	seedSchedule(t, s)
	ctx := context.Background()

	require.NoError(t, s.UpdateTicketPlanningStatus(ctx, "t1", "published"))
	assert.Error(t, s.UpdateTicketPlanningStatus(ctx, "missing", "published"))

	tickets, err := s.FetchPlanningTickets(ctx, "2024-01-01", "2024-01-31", true)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "published", tickets[0].PlanningStatus)
	assert.Equal(t, 1, tickets[1].RequiredStaffCount)
}

func TestLegacySchemaDegradesShim(t *testing.T) {
	s := newTestStore(t, false)
	seedSchedule(t, s)
	ctx := context.Background()

	_, err := s.FetchPlanningTickets(ctx, "2024-01-01", "2024-01-31", true)
	require.Error(t, err)
	assert.True(t, compat.IsMissingColumn(err), err.Error())

	shim := compat.NewPlanningShim(s, true)
	tickets, err := shim.FetchTickets(ctx, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
	assert.Equal(t, compat.ModeLegacy, shim.Mode())

	res, err := shim.UpdatePlanningStatus(ctx, "t1", "published")
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.NotEmpty(t, res.Advisory)
}
