package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DateLayout is the layout of every date key handled by the engine
const DateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

var dayCodes = [...]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// weekOrder lists weekday codes in the order the board renders them
var weekOrder = []string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

// DayCode returns the three letter code of a weekday
func DayCode(d time.Weekday) string {
	return dayCodes[d]
}

// NormalizeDate trims a date or timestamp down to its YYYY-MM-DD key.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	return s
}

// Weekday parses a date key and returns its day of week.
func Weekday(date string) (time.Weekday, error) {
	t, err := time.Parse(DateLayout, NormalizeDate(date))
	if err != nil {
		return 0, eris.Wrapf(err, "schedule: parse date %q", date)
	}
	return t.Weekday(), nil
}

// NormalizeTime renders a clock value as HH:MM, dropping seconds.
// Values that do not look like a clock are returned trimmed.
func NormalizeTime(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return s
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil {
		return s
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ClockMinutes converts HH:MM into minutes since midnight.
func ClockMinutes(s string) (int, bool) {
	parts := strings.Split(NormalizeTime(s), ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// ShiftMinutes returns the length of a shift. An end at or before the start
// is an overnight shift and wraps past midnight, so a parsed shift is never
// zero or negative. ok is false when either clock value cannot be parsed.
func ShiftMinutes(start, end string) (int, bool) {
	s, okS := ClockMinutes(start)
	e, okE := ClockMinutes(end)
	if !okS || !okE {
		return 0, false
	}
	d := e - s
	if d <= 0 {
		d += minutesPerDay
	}
	return d, true
}

// DateKeys expands an inclusive date range into date keys.
func DateKeys(start, end string) ([]string, error) {
	from, err := time.Parse(DateLayout, NormalizeDate(start))
	if err != nil {
		return nil, eris.Wrapf(err, "schedule: parse range start %q", start)
	}
	to, err := time.Parse(DateLayout, NormalizeDate(end))
	if err != nil {
		return nil, eris.Wrapf(err, "schedule: parse range end %q", end)
	}
	if to.Before(from) {
		return nil, eris.Errorf("schedule: range end %s before start %s", end, start)
	}
	var keys []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(DateLayout))
	}
	return keys, nil
}

func dateSet(dates []string) map[string]struct{} {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}
