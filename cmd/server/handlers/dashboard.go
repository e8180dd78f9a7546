package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dromara/carbon/v2"
	"github.com/shopspring/decimal"

	"github.com/akawula/TaskMatic/internal/export"
	"github.com/akawula/TaskMatic/internal/timeutils"
	"github.com/akawula/TaskMatic/internal/valuation"
	"github.com/akawula/TaskMatic/store"
	"github.com/akawula/TaskMatic/store/sqlc"
)

type DashboardResponseAPI struct {
	StartDate           time.Time                   `json:"start_date"`
	EndDate             time.Time                   `json:"end_date"`
	Calendar            string                      `json:"calendar"`
	MonthlyWorkingHours decimal.Decimal             `json:"monthly_working_hours"`
	Employees           []valuation.EmployeeSummary `json:"employees"`
}

// monthPeriod defaults to one month from start, or to the current calendar
// month when start is zero.
func monthPeriod(now func() time.Time, loc *time.Location) func(time.Time) (time.Time, time.Time) {
	return func(start time.Time) (time.Time, time.Time) {
		if start.IsZero() {
			t := now()
			if loc != nil {
				t = t.In(loc)
			}
			first := carbon.CreateFromStdTime(t).StartOfMonth()
			return first.StdTime(), first.AddMonth().StdTime()
		}
		return start, start.AddDate(0, 1, 0)
	}
}

func loadPeriod(r *http.Request, db store.Store, now func() time.Time, cal timeutils.WorkingCalendar) (start, end time.Time, users []sqlc.User, rows []sqlc.CompletedTaskRow, status int, err error) {
	start, end, err = period(r, monthPeriod(now, cal.Location()))
	if err != nil {
		return start, end, nil, nil, http.StatusBadRequest, err
	}
	users, err = db.ListUsers(r.Context())
	if err != nil {
		return start, end, nil, nil, http.StatusInternalServerError, err
	}
	rows, err = db.ListCompletedTasksBetween(r.Context(), start, end)
	if err != nil {
		return start, end, nil, nil, http.StatusInternalServerError, err
	}
	return start, end, users, rows, http.StatusOK, nil
}

// DashboardHandler summarizes hours, value and cost per employee for a period.
func DashboardHandler(logger *slog.Logger, db store.Store, cal timeutils.WorkingCalendar, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, users, rows, status, err := loadPeriod(r, db, now, cal)
		if err != nil {
			if status == http.StatusBadRequest {
				writeJSONError(w, err.Error(), status)
				return
			}
			writeJSONError(w, "Internal server error", status)
			return
		}

		report, err := valuation.Report(users, rows, cal)
		if err != nil {
			logger.Error("Failed to build dashboard", "error", err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		logger.Debug("Dashboard built", "start", start, "end", end, "tasks", len(rows), "employees", len(report))
		writeJSON(w, http.StatusOK, DashboardResponseAPI{
			StartDate:           start,
			EndDate:             end,
			Calendar:            cal.String(),
			MonthlyWorkingHours: valuation.MonthlyWorkingHours(cal),
			Employees:           report,
		})
	}
}

// ExportHandler streams the period as an xlsx workbook.
func ExportHandler(logger *slog.Logger, db store.Store, cal timeutils.WorkingCalendar, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, _, users, rows, status, err := loadPeriod(r, db, now, cal)
		if err != nil {
			if status == http.StatusBadRequest {
				writeJSONError(w, err.Error(), status)
				return
			}
			writeJSONError(w, "Internal server error", status)
			return
		}

		report, err := valuation.Report(users, rows, cal)
		if err != nil {
			logger.Error("Failed to build export summary", "error", err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		if err := export.WriteTasks(&buf, export.RowsFromCompleted(rows), report); err != nil {
			logger.Error("Failed to write workbook", "error", err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tasks-%s.xlsx"`, start.Format("2006-01-02")))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			logger.Warn("Failed to send workbook", "error", err)
		}
	}
}
