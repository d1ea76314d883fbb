package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BusinessHours describes the fixed daily interval inside which
// appointments are bucketed for capacity counting.
type BusinessHours struct {
	startHour, startMin int
	endHour, endMin     int
	loc                 *time.Location
}

// New builds a BusinessHours from "HH:MM" bounds and a timezone name.
// The end bound is inclusive to the minute ("16:59" covers up to 16:59:59).
func New(dayStart, dayEnd, timezone string) (BusinessHours, error) {
	sh, sm, err := parseClock(dayStart)
	if err != nil {
		return BusinessHours{}, fmt.Errorf("invalid day_start: %w", err)
	}
	eh, em, err := parseClock(dayEnd)
	if err != nil {
		return BusinessHours{}, fmt.Errorf("invalid day_end: %w", err)
	}
	if sh*60+sm >= eh*60+em {
		return BusinessHours{}, fmt.Errorf("day_start %s is not before day_end %s", dayStart, dayEnd)
	}

	loc := time.Local
	if timezone != "" && timezone != "Local" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return BusinessHours{}, fmt.Errorf("invalid timezone: %w", err)
		}
	}

	return BusinessHours{startHour: sh, startMin: sm, endHour: eh, endMin: em, loc: loc}, nil
}

func parseClock(s string) (hour, min int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err == nil {
		min, err = strconv.Atoi(parts[1])
	}
	if err != nil || hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return hour, min, nil
}

// Location returns the timezone the window is evaluated in.
func (b BusinessHours) Location() *time.Location {
	return b.loc
}

// DayWindow returns the inclusive window bounds for the calendar day that
// contains date. The time-of-day of date is ignored.
func (b BusinessHours) DayWindow(date time.Time) (start, end time.Time) {
	d := date.In(b.loc)
	start = time.Date(d.Year(), d.Month(), d.Day(), b.startHour, b.startMin, 0, 0, b.loc)
	end = time.Date(d.Year(), d.Month(), d.Day(), b.endHour, b.endMin, 59, 0, b.loc)
	return start, end
}

// Contains reports whether t falls inside the business-hours window of its
// own calendar day. Appointments outside the window are not counted against
// the daily capacity.
func (b BusinessHours) Contains(t time.Time) bool {
	start, end := b.DayWindow(t)
	return !t.Before(start) && !t.After(end)
}

// DayKey returns the YYYY-MM-DD bucket key for t, evaluated in the
// business-hours timezone. Slot counter rows are keyed by it.
func (b BusinessHours) DayKey(t time.Time) string {
	return t.In(b.loc).Format("2006-01-02")
}
