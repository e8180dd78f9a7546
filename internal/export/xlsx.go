// Package export renders completed tasks and per-employee totals as an xlsx
// workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/akawula/TaskMatic/internal/tasks"
	"github.com/akawula/TaskMatic/internal/valuation"
	"github.com/akawula/TaskMatic/store/sqlc"
)

const (
	TasksSheet   = "Tasks"
	SummarySheet = "Summary"
)

var (
	taskHeader    = []interface{}{"Task", "Title", "Assignee", "Status", "Started", "Finished", "Elapsed hours", "Value"}
	summaryHeader = []interface{}{"Username", "Full name", "Tasks", "Hours", "Hourly rate", "Cost", "Value", "Net", "Contribution"}
)

// Row is one line of the Tasks sheet.
type Row struct {
	TaskID       string
	Title        string
	Assignee     string
	Status       string
	Started      time.Time
	Finished     time.Time
	ElapsedHours float64
	Value        decimal.Decimal
}

// RowsFromCompleted converts store rows, skipping values that do not parse.
func RowsFromCompleted(rows []sqlc.CompletedTaskRow) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		value, err := decimal.NewFromString(r.Value)
		if err != nil {
			value = decimal.Zero
		}
		out = append(out, Row{
			TaskID:       r.ID,
			Title:        r.Title,
			Assignee:     r.AssigneeUsername,
			Status:       r.Status,
			Started:      tasks.StartTime(r.Task),
			Finished:     r.TaskEndTime.Time,
			ElapsedHours: r.ElapsedHours.Float64,
			Value:        value,
		})
	}
	return out
}

// WriteTasks writes the workbook to w.
func WriteTasks(w io.Writer, rows []Row, summaries []valuation.EmployeeSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TasksSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, TasksSheet, 1, taskHeader); err != nil {
		return err
	}
	for i, r := range rows {
		if err := writeRow(f, TasksSheet, i+2, []interface{}{
			r.TaskID,
			r.Title,
			r.Assignee,
			r.Status,
			formatTime(r.Started),
			formatTime(r.Finished),
			r.ElapsedHours,
			r.Value.InexactFloat64(),
		}); err != nil {
			return err
		}
	}

	if err := writeRow(f, SummarySheet, 1, summaryHeader); err != nil {
		return err
	}
	for i, s := range summaries {
		if err := writeRow(f, SummarySheet, i+2, []interface{}{
			s.Username,
			s.FullName,
			s.TasksCount,
			s.TotalHours,
			s.HourlyRate.InexactFloat64(),
			s.TotalCost.InexactFloat64(),
			s.TotalValue.InexactFloat64(),
			s.Net.InexactFloat64(),
			s.ContributionRatio.InexactFloat64(),
		}); err != nil {
			return err
		}
	}

	for _, sheet := range []struct {
		name string
		last string
	}{{TasksSheet, "H"}, {SummarySheet, "I"}} {
		if err := f.SetCellStyle(sheet.name, "A1", sheet.last+"1", bold); err != nil {
			return fmt.Errorf("failed to style header of %s: %w", sheet.name, err)
		}
		if err := f.SetColWidth(sheet.name, "A", sheet.last, 18); err != nil {
			return fmt.Errorf("failed to size columns of %s: %w", sheet.name, err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}
