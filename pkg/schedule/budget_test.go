package schedule

import (
	"testing"
	"time"

	"github.com/arnavshah/staffing-engine-go/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// days returns n consecutive date keys starting at 2024-01-01.
func days(n int) []string {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]string, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i).Format(DateLayout)
	}
	return out
}

func TestShiftMinutes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		start string
		end   string
		want  int
		ok    bool
	}{
		{"day shift", "09:00", "17:00", 480, true},
		{"overnight", "22:00", "06:00", 480, true},
		{"seconds dropped", "09:00:00", "17:30:59", 510, true},
		{"zero length wraps to a full day", "08:00", "08:00", 1440, true},
		{"unparseable", "", "17:00", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ShiftMinutes(tt.start, tt.end)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBudgetUnderThreshold(t *testing.T) {
	t.Parallel()
	// 4 x 8h = 32h at $18.50
	rows := []models.RecurringScheduleRow{row("A", "FLOOR", "S1", models.StatusAssigned, days(4)...)}

	got := Budget(rows, days(7), map[string]float64{"A": 18.5}, BudgetOptions{})
	require.Contains(t, got.Staff, "A")
	assert.True(t, decimal.NewFromInt(32).Mul(decimal.NewFromFloat(18.5)).Equal(got.Staff["A"].Cost))
	assert.Equal(t, 32.0, got.TotalHours)
	assert.Equal(t, 0.0, got.TotalOvertimeHours)
	assert.True(t, got.TotalCost.Equal(decimal.NewFromInt(592)))
}

func TestBudgetOvertimeSplit(t *testing.T) {
	t.Parallel()
	// 5 x 10h = 50h at $20: 40*20 + 10*20*1.5
	r := row("A", "FLOOR", "S1", models.StatusAssigned, days(5)...)
	r.StartTime, r.EndTime = "08:00", "18:00"

	got := Budget([]models.RecurringScheduleRow{r}, days(5), map[string]float64{"A": 20}, BudgetOptions{})
	p := got.Staff["A"]
	assert.Equal(t, 50.0, p.TotalHours)
	assert.Equal(t, 40.0, p.RegularHours)
	assert.Equal(t, 10.0, p.OvertimeHours)
	assert.True(t, p.Cost.Equal(decimal.NewFromInt(1100)), p.Cost.String())
	assert.Equal(t, 10.0, got.TotalOvertimeHours)
}

func TestBudgetCustomOvertimeRule(t *testing.T) {
	t.Parallel()
	r := row("A", "FLOOR", "S1", models.StatusAssigned, days(5)...)

	got := Budget([]models.RecurringScheduleRow{r}, days(5), map[string]float64{"A": 10}, BudgetOptions{OvertimeThreshold: 32, OvertimeMultiplier: 2})
	// 40h: 32*10 + 8*10*2
	assert.True(t, got.TotalCost.Equal(decimal.NewFromInt(480)), got.TotalCost.String())
}

func TestBudgetMissingRate(t *testing.T) {
	t.Parallel()
	rows := []models.RecurringScheduleRow{
		row("A", "FLOOR", "S1", models.StatusAssigned, days(6)...),
		row("B", "FLOOR", "S1", models.StatusAssigned, days(6)...),
	}

	got := Budget(rows, days(6), map[string]float64{"A": 10}, BudgetOptions{})
	assert.Equal(t, 96.0, got.TotalHours, "hours count every staff member")
	assert.Equal(t, 48.0, got.HoursByStaff["B"])
	assert.NotContains(t, got.Staff, "B")
	assert.Equal(t, 8.0, got.TotalOvertimeHours, "unrated overtime is not reported")
	// 40*10 + 8*10*1.5
	assert.True(t, got.TotalCost.Equal(decimal.NewFromInt(520)), got.TotalCost.String())
}

func TestBudgetSkipsOpenShiftsAndHiddenDates(t *testing.T) {
	t.Parallel()
	rows := []models.RecurringScheduleRow{
		row("", "FLOOR", "S1", models.StatusOpen, days(3)...),
		row("A", "FLOOR", "S1", models.StatusAssigned, "2024-01-01", "2024-02-01"),
		row("C", "FLOOR", "S1", models.StatusAssigned, "2024-03-01"),
	}

	got := Budget(rows, days(7), map[string]float64{"A": 10, "C": 10}, BudgetOptions{})
	assert.Equal(t, 8.0, got.TotalHours)
	assert.Len(t, got.HoursByStaff, 1)
	assert.True(t, got.TotalCost.Equal(decimal.NewFromInt(80)))
}

func TestBudgetOvernightShift(t *testing.T) {
	t.Parallel()
	r := row("N", "SECURITY", "S1", models.StatusAssigned, "2024-01-01")
	r.StartTime, r.EndTime = "22:00", "06:00"

	got := Budget([]models.RecurringScheduleRow{r}, days(1), map[string]float64{"N": 15}, BudgetOptions{})
	assert.Equal(t, 8.0, got.TotalHours)
	assert.True(t, got.TotalCost.Equal(decimal.NewFromInt(120)))
}

func TestBudgetShortShiftCostIsExact(t *testing.T) {
	t.Parallel()
	// 20 minutes at $30 is $10, not 9.999...
	r := row("Q", "FLOOR", "S1", models.StatusAssigned, "2024-01-01")
	r.StartTime, r.EndTime = "09:00", "09:20"

	got := Budget([]models.RecurringScheduleRow{r}, days(1), map[string]float64{"Q": 30}, BudgetOptions{})
	assert.Equal(t, "10", got.Staff["Q"].Cost.String())
	assert.Equal(t, "10", got.TotalCost.String())
}

func TestDateKeys(t *testing.T) {
	t.Parallel()
	keys, err := DateKeys("2024-02-27", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, keys)

	_, err = DateKeys("2024-03-02", "2024-03-01")
	assert.Error(t, err)
	_, err = DateKeys("bad", "2024-03-01")
	assert.Error(t, err)
}

func TestNormalizeTime(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "09:05", NormalizeTime("9:05:30"))
	assert.Equal(t, "17:00", NormalizeTime(" 17:00 "))
	assert.Equal(t, "", NormalizeTime(""))
}
