package valuation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/akawula/TaskMatic/internal/timeutils"
	"github.com/akawula/TaskMatic/store/sqlc"
)

// EmployeeSummary is one dashboard line.
type EmployeeSummary struct {
	UserID        int32           `json:"user_id"`
	Username      string          `json:"username"`
	FullName      string          `json:"full_name"`
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
	Summary
}

// Report summarizes completed tasks per assignee. Every employee in users gets
// a line, even without completed tasks; managers only appear when they have
// tasks of their own. Lines are ordered by username.
func Report(users []sqlc.User, rows []sqlc.CompletedTaskRow, cal timeutils.WorkingCalendar) ([]EmployeeSummary, error) {
	type acc struct {
		user  sqlc.User
		tasks []TaskValue
	}
	byID := map[int32]*acc{}

	for _, u := range users {
		if u.Role == "employee" {
			byID[u.ID] = &acc{user: u}
		}
	}
	for _, r := range rows {
		a, ok := byID[r.AssigneeID]
		if !ok {
			a = &acc{user: sqlc.User{ID: r.AssigneeID, Username: r.AssigneeUsername, FullName: r.AssigneeFullName, MonthlySalary: r.MonthlySalary}}
			byID[r.AssigneeID] = a
		}
		value, err := parseAmount(r.Value)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", r.ID, err)
		}
		a.tasks = append(a.tasks, TaskValue{TaskID: r.ID, Hours: r.ElapsedHours.Float64, Value: value})
	}

	out := make([]EmployeeSummary, 0, len(byID))
	for _, a := range byID {
		salary, err := parseAmount(a.user.MonthlySalary)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", a.user.Username, err)
		}
		out = append(out, EmployeeSummary{
			UserID:        a.user.ID,
			Username:      a.user.Username,
			FullName:      a.user.FullName,
			MonthlySalary: salary,
			Summary:       Summarize(salary, a.tasks, cal),
		})
	}
	slices.SortFunc(out, func(a, b EmployeeSummary) int {
		return strings.Compare(a.Username, b.Username)
	})
	return out, nil
}

// parseAmount reads a numeric column rendered as text. Empty means zero.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}
