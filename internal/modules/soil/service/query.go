package service

import (
	"strings"
	"time"

	"soilmon/internal/modules/soil/types"
)

const dateLayout = "2006-01-02"

// DayRange expands two calendar dates to [start 00:00:00.000, end
// 23:59:59.999] in UTC. Dates are YYYY-MM-DD; an RFC3339 timestamp is
// reduced to its UTC date.
func DayRange(start, end string) (time.Time, time.Time, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, types.ErrMissingDates
	}

	from, err := parseDay(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	toDay, err := parseDay(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(toDay) {
		return time.Time{}, time.Time{}, types.ErrInvertedRange
	}

	to := toDay.Add(24*time.Hour - time.Millisecond)
	return from, to, nil
}

func parseDay(s string) (time.Time, error) {
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, types.ErrInvalidDate
	}
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}
