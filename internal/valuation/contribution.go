// Package valuation relates the hours an employee spends on tasks and the value
// recorded for those tasks to the employee's salary.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/akawula/TaskMatic/internal/timeutils"
)

var weeksPerMonth = decimal.NewFromInt(52).Div(decimal.NewFromInt(12))

// TaskValue is one finished task as seen by the valuation.
type TaskValue struct {
	TaskID string
	Hours  float64
	Value  decimal.Decimal
}

// Summary is the contribution of one employee over a period.
type Summary struct {
	TotalHours        float64         `json:"total_hours"`
	TasksCount        int             `json:"tasks_count"`
	HourlyRate        decimal.Decimal `json:"hourly_rate"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	TotalValue        decimal.Decimal `json:"total_value"`
	Net               decimal.Decimal `json:"net"`
	ContributionRatio decimal.Decimal `json:"contribution_ratio"`
}

// MonthlyWorkingHours is the number of office hours in an average month under cal.
func MonthlyWorkingHours(cal timeutils.WorkingCalendar) decimal.Decimal {
	perWeek := decimal.NewFromFloat(cal.DailyHours()).Mul(decimal.NewFromInt(int64(len(cal.WorkingDays()))))
	return perWeek.Mul(weeksPerMonth).Round(2)
}

// HourlyRate derives an hourly cost from a monthly salary.
func HourlyRate(monthlySalary decimal.Decimal, cal timeutils.WorkingCalendar) decimal.Decimal {
	hours := MonthlyWorkingHours(cal)
	if !monthlySalary.IsPositive() || !hours.IsPositive() {
		return decimal.Zero
	}
	return monthlySalary.Div(hours).Round(2)
}

// TaskCost is the salary cost of the given hours.
func TaskCost(hours float64, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(hours).Mul(rate).Round(2)
}

// Summarize aggregates tasks against a monthly salary.
func Summarize(monthlySalary decimal.Decimal, tasks []TaskValue, cal timeutils.WorkingCalendar) Summary {
	s := Summary{
		HourlyRate: HourlyRate(monthlySalary, cal),
		TasksCount: len(tasks),
		TotalValue: decimal.Zero,
	}

	var hours float64
	for _, t := range tasks {
		hours += t.Hours
		s.TotalValue = s.TotalValue.Add(t.Value)
	}
	s.TotalHours = timeutils.RoundHours(hours)
	s.TotalCost = TaskCost(s.TotalHours, s.HourlyRate)
	s.TotalValue = s.TotalValue.Round(2)
	s.Net = s.TotalValue.Sub(s.TotalCost)

	s.ContributionRatio = decimal.Zero
	if monthlySalary.IsPositive() {
		s.ContributionRatio = s.TotalValue.Div(monthlySalary).Round(2)
	}
	return s
}
