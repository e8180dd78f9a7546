package timeutils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoWorkingDays      = errors.New("calendar must have at least one working day")
	ErrInvalidOfficeHours = errors.New("office hours must satisfy 0 <= start < end <= 23")
	ErrInvalidWeekday     = errors.New("invalid weekday")
)

// WorkingCalendar describes which weekdays count as working days and the daily
// office window [startHour:00, endHour:00). The zero value has no working days;
// build one with NewWorkingCalendar or DefaultCalendar.
type WorkingCalendar struct {
	days      uint8 // bit i set => time.Weekday(i) is a working day
	startHour int
	endHour   int
	loc       *time.Location // nil => location of the timestamp being examined
}

// NewWorkingCalendar validates and builds an immutable calendar.
func NewWorkingCalendar(days []time.Weekday, startHour, endHour int, loc *time.Location) (WorkingCalendar, error) {
	var mask uint8
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return WorkingCalendar{}, fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
		}
		mask |= 1 << uint(d)
	}
	if mask == 0 {
		return WorkingCalendar{}, ErrNoWorkingDays
	}
	if startHour < 0 || endHour > 23 || startHour >= endHour {
		return WorkingCalendar{}, fmt.Errorf("%w: got %d-%d", ErrInvalidOfficeHours, startHour, endHour)
	}

	return WorkingCalendar{days: mask, startHour: startHour, endHour: endHour, loc: loc}, nil
}

// DefaultCalendar is the policy used across the dashboard: Saturday through
// Thursday, 09:00-18:00 local time. Friday is the only day off.
func DefaultCalendar() WorkingCalendar {
	cal, err := NewWorkingCalendar([]time.Weekday{
		time.Saturday, time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	}, 9, 18, time.Local)
	if err != nil {
		panic(err) // constant input
	}
	return cal
}

// IsWorkingDay reports whether w accrues office hours. This is a set lookup:
// the day off is not a contiguous range in Sunday-first numbering.
func (c WorkingCalendar) IsWorkingDay(w time.Weekday) bool {
	if w < time.Sunday || w > time.Saturday {
		return false
	}
	return c.days&(1<<uint(w)) != 0
}

// OfficeWindowFor returns the office window on the calendar date of t.
func (c WorkingCalendar) OfficeWindowFor(t time.Time) (time.Time, time.Time) {
	t = c.in(t)
	y, m, d := t.Date()
	return time.Date(y, m, d, c.startHour, 0, 0, 0, t.Location()),
		time.Date(y, m, d, c.endHour, 0, 0, 0, t.Location())
}

// WorkingDays returns the working weekdays in Sunday-first order.
func (c WorkingCalendar) WorkingDays() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for w := time.Sunday; w <= time.Saturday; w++ {
		if c.IsWorkingDay(w) {
			days = append(days, w)
		}
	}
	return days
}

func (c WorkingCalendar) OfficeHours() (int, int) { return c.startHour, c.endHour }

func (c WorkingCalendar) Location() *time.Location { return c.loc }

// DailyHours is the length of one office window in hours.
func (c WorkingCalendar) DailyHours() float64 { return float64(c.endHour - c.startHour) }

func (c WorkingCalendar) String() string {
	names := make([]string, 0, 7)
	for _, d := range c.WorkingDays() {
		names = append(names, d.String()[:3])
	}
	loc := "local"
	if c.loc != nil {
		loc = c.loc.String()
	}
	return fmt.Sprintf("%s %02d:00-%02d:00 (%s)", strings.Join(names, ","), c.startHour, c.endHour, loc)
}

// in converts t into the calendar location when one is configured.
func (c WorkingCalendar) in(t time.Time) time.Time {
	if c.loc == nil {
		return t
	}
	return t.In(c.loc)
}

// ParseWeekday accepts English weekday names ("Saturday", "sat") or digits 0-6
// (0=Sunday).
func ParseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
		}
		return time.Weekday(n), nil
	}
	for w := time.Sunday; w <= time.Saturday; w++ {
		name := strings.ToLower(w.String())
		if v == name || (len(v) == 3 && v == name[:3]) {
			return w, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}
