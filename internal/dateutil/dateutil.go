// Package dateutil provides small calendar helpers used by report
// filtering and relative date expressions in format parameters.
package dateutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var relativeDatePattern = regexp.MustCompile(`^(date|week|month)([+-]\d+)$`)

// TruncateDate truncates a date down to the start of its day, week or
// month. Weeks start on Monday. Accepted timescales are day/week/month and
// their daily/weekly/monthly aliases; anything else truncates to the day.
func TruncateDate(date time.Time, timescale string) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	switch timescale {
	case "week", "weekly":
		// time.Weekday counts from Sunday; shift so Monday is 0.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case "month", "monthly":
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	default:
		return day
	}
}

// RelativeDate resolves a relative date expression of the form
// (date|week|month)(+|-)n against a reference date: the reference is
// truncated to the named timescale, then shifted n steps.
//
//	RelativeDate("week-1", t)  // start of the previous week
//	RelativeDate("month+0", t) // start of the current month
func RelativeDate(expr string, reference time.Time) (time.Time, error) {
	m := relativeDatePattern.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid relative date: %q", expr)
	}
	timescale := m[1]
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid relative date: %q", expr)
	}

	base := TruncateDate(reference, timescale)
	switch timescale {
	case "week":
		return base.AddDate(0, 0, 7*n), nil
	case "month":
		return base.AddDate(0, n, 0), nil
	default:
		return base.AddDate(0, 0, n), nil
	}
}
