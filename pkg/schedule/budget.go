package schedule

import (
	"github.com/arnavshah/staffing-engine-go/pkg/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Overtime defaults applied when BudgetOptions leaves a field unset.
const (
	DefaultOvertimeThreshold  = 40.0
	DefaultOvertimeMultiplier = 1.5
)

// BudgetOptions holds the overtime rule used for cost projections
type BudgetOptions struct {
	OvertimeThreshold  float64 `mapstructure:"overtime_threshold" json:"overtime_threshold"`
	OvertimeMultiplier float64 `mapstructure:"overtime_multiplier" json:"overtime_multiplier"`
}

func (o BudgetOptions) withDefaults() BudgetOptions {
	if o.OvertimeThreshold <= 0 {
		o.OvertimeThreshold = DefaultOvertimeThreshold
	}
	if o.OvertimeMultiplier <= 0 {
		o.OvertimeMultiplier = DefaultOvertimeMultiplier
	}
	return o
}

var minutesPerHour = decimal.NewFromInt(60)

// Budget projects hours and labor cost per staff member over the visible
// dates. Open shifts cost nothing. Staff without a positive pay rate count
// toward TotalHours and HoursByStaff only; they are left out of Staff,
// TotalCost and TotalOvertimeHours so a missing rate never shows as $0.
func Budget(rows []models.RecurringScheduleRow, visibleDates []string, rates map[string]float64, opts BudgetOptions) models.BudgetSummary {
	opts = opts.withDefaults()
	visible := dateSet(visibleDates)

	var names []string
	minutes := make(map[string]int)
	for _, r := range rows {
		if r.IsOpen() {
			continue
		}
		days := 0
		for _, d := range r.ScheduledDates {
			if _, ok := visible[d]; ok {
				days++
			}
		}
		if days == 0 {
			continue
		}
		length, ok := ShiftMinutes(r.StartTime, r.EndTime)
		if !ok {
			zap.L().Warn("schedule: skipping row with unparseable shift times",
				zap.String("row", r.Key().String()))
			continue
		}
		if _, seen := minutes[r.StaffName]; !seen {
			names = append(names, r.StaffName)
		}
		minutes[r.StaffName] += length * days
	}

	threshold := decimal.NewFromFloat(opts.OvertimeThreshold)
	thresholdMins := threshold.Mul(minutesPerHour)
	multiplier := decimal.NewFromFloat(opts.OvertimeMultiplier)

	summary := models.BudgetSummary{
		TotalCost:    decimal.Zero,
		HoursByStaff: make(map[string]float64, len(names)),
		Staff:        make(map[string]models.StaffCostProjection),
	}
	totalHours, totalOvertime := decimal.Zero, decimal.Zero

	for _, name := range names {
		hours := decimal.NewFromInt(int64(minutes[name])).Div(minutesPerHour)
		totalHours = totalHours.Add(hours)
		summary.HoursByStaff[name] = hours.InexactFloat64()

		rate := decimal.NewFromFloat(rates[name])
		if !rate.IsPositive() {
			continue
		}
		regular := decimal.Min(hours, threshold)
		overtime := decimal.Max(decimal.Zero, hours.Sub(threshold))

		// cost is priced in minutes and divided once so that short shifts
		// do not pick up rounding from the hour conversion
		mins := decimal.NewFromInt(int64(minutes[name]))
		regularMins := decimal.Min(mins, thresholdMins)
		overtimeMins := mins.Sub(regularMins)
		cost := regularMins.Mul(rate).Add(overtimeMins.Mul(rate).Mul(multiplier)).Div(minutesPerHour)

		summary.Staff[name] = models.StaffCostProjection{
			StaffName:     name,
			TotalHours:    hours.InexactFloat64(),
			RegularHours:  regular.InexactFloat64(),
			OvertimeHours: overtime.InexactFloat64(),
			HourlyRate:    rate,
			Cost:          cost,
		}
		summary.TotalCost = summary.TotalCost.Add(cost)
		totalOvertime = totalOvertime.Add(overtime)
	}

	summary.TotalHours = totalHours.InexactFloat64()
	summary.TotalOvertimeHours = totalOvertime.InexactFloat64()
	return summary
}
