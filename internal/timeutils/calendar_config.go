package timeutils

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CalendarConfig is the on-disk form of a WorkingCalendar.
type CalendarConfig struct {
	WorkingDays     []string `yaml:"working_days"`
	OfficeStartHour int      `yaml:"office_start_hour"`
	OfficeEndHour   int      `yaml:"office_end_hour"`
	Timezone        string   `yaml:"timezone"`
}

// Calendar validates the config and builds the calendar it describes.
func (cc CalendarConfig) Calendar() (WorkingCalendar, error) {
	days := make([]time.Weekday, 0, len(cc.WorkingDays))
	for _, name := range cc.WorkingDays {
		d, err := ParseWeekday(name)
		if err != nil {
			return WorkingCalendar{}, err
		}
		days = append(days, d)
	}

	loc := time.Local
	if cc.Timezone != "" {
		l, err := time.LoadLocation(cc.Timezone)
		if err != nil {
			return WorkingCalendar{}, fmt.Errorf("invalid timezone %q: %w", cc.Timezone, err)
		}
		loc = l
	}

	return NewWorkingCalendar(days, cc.OfficeStartHour, cc.OfficeEndHour, loc)
}

// ParseCalendar decodes a YAML calendar document.
func ParseCalendar(data []byte) (WorkingCalendar, error) {
	var cc CalendarConfig
	if err := yaml.Unmarshal(data, &cc); err != nil {
		return WorkingCalendar{}, fmt.Errorf("failed to parse calendar config: %w", err)
	}
	return cc.Calendar()
}

// LoadCalendar reads a YAML calendar file.
func LoadCalendar(path string) (WorkingCalendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WorkingCalendar{}, fmt.Errorf("failed to read calendar config: %w", err)
	}
	cal, err := ParseCalendar(data)
	if err != nil {
		return WorkingCalendar{}, fmt.Errorf("%s: %w", path, err)
	}
	return cal, nil
}

// LoadCalendarFromEnv loads the file named by CALENDAR_FILE, or returns
// DefaultCalendar when the variable is unset.
func LoadCalendarFromEnv() (WorkingCalendar, error) {
	path := os.Getenv("CALENDAR_FILE")
	if path == "" {
		return DefaultCalendar(), nil
	}
	return LoadCalendar(path)
}
