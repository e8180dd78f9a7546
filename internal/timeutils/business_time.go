package timeutils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CalculateBusinessSeconds returns the number of seconds between start and end
// that fall inside the calendar's office window on working days. The result is
// not rounded; CalculateElapsedHours rounds it.
// Timestamps are compared as wall-clock time in the calendar location (or in
// start's own location when the calendar has none).
func CalculateBusinessSeconds(start, end time.Time, cal WorkingCalendar) float64 {
	// Not-yet-finished and zero-length spans accrue nothing.
	if !start.Before(end) {
		return 0
	}

	start, end = cal.in(start), cal.in(end)

	var total time.Duration
	current := start

	for current.Before(end) {
		if cal.IsWorkingDay(current.Weekday()) {
			dayStart, dayEnd := cal.OfficeWindowFor(current)

			actualStart := current
			if dayStart.After(actualStart) {
				actualStart = dayStart
			}
			actualEnd := end
			if dayEnd.Before(actualEnd) {
				actualEnd = dayEnd
			}

			if actualStart.Before(actualEnd) {
				total += actualEnd.Sub(actualStart)
			}
		}

		// Always move to the next calendar day's office opening, whether or not
		// anything was accrued. Building the date with d+1 keeps DST days at one
		// calendar day instead of 24h.
		y, m, d := current.Date()
		current = time.Date(y, m, d+1, cal.startHour, 0, 0, 0, current.Location())
	}

	return total.Seconds()
}

// CalculateElapsedHours converts a task's start/end timestamps into hours
// worked, counting only office hours on working days. The result is rounded to
// two decimal places and is never negative.
func CalculateElapsedHours(start, end time.Time, cal WorkingCalendar) float64 {
	return RoundHours(CalculateBusinessSeconds(start, end, cal) / 3600)
}

// RoundHours rounds to two decimal places and clamps at zero.
func RoundHours(h float64) float64 {
	return math.Max(0, math.Round(h*100)/100)
}

// FormatHours renders hours for display, e.g. 4 -> "4.0h", 2.25 -> "2.25h".
func FormatHours(h float64) string {
	s := strconv.FormatFloat(RoundHours(h), 'f', 2, 64)
	s = strings.TrimSuffix(s, "0")
	return s + "h"
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses an ISO-8601 timestamp. RFC 3339 values keep their
// offset; values without an offset are read as wall-clock time in loc
// (time.Local when loc is nil).
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q (use RFC3339, e.g. 2025-01-06T10:00:00+03:00)", s)
}
