package handlers

import (
	"net/http"
	"time"

	"github.com/akawula/TaskMatic/internal/timeutils"
)

type ElapsedHoursRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

type ElapsedHoursResponse struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	ElapsedHours float64   `json:"elapsed_hours"`
	Display      string    `json:"display"`
}

// ElapsedHoursHandler computes business hours between two timestamps with the
// server calendar.
func ElapsedHoursHandler(cal timeutils.WorkingCalendar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeJSON[ElapsedHoursRequest](r)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		start, err := timeutils.ParseTimestamp(req.Start, cal.Location())
		if err != nil {
			writeJSONError(w, "start: "+err.Error(), http.StatusBadRequest)
			return
		}
		end, err := timeutils.ParseTimestamp(req.End, cal.Location())
		if err != nil {
			writeJSONError(w, "end: "+err.Error(), http.StatusBadRequest)
			return
		}

		hours := timeutils.CalculateElapsedHours(start, end, cal)
		writeJSON(w, http.StatusOK, ElapsedHoursResponse{
			Start:        start,
			End:          end,
			ElapsedHours: hours,
			Display:      timeutils.FormatHours(hours),
		})
	}
}
