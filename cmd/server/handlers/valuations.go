package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/akawula/TaskMatic/store"
	"github.com/akawula/TaskMatic/store/sqlc"
)

type CreateValuationRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
	Note   string `json:"note" validate:"max=1000"`
}

func CreateValuationHandler(logger *slog.Logger, db store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mustClaims(w, r)
		if !ok {
			return
		}
		task, ok := loadTask(w, r, db, claims)
		if !ok {
			return
		}

		req, err := decodeJSON[CreateValuationRequest](r)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil || !amount.IsPositive() {
			writeJSONError(w, "amount must be a positive number", http.StatusBadRequest)
			return
		}

		v, err := db.CreateValuation(r.Context(), sqlc.CreateValuationParams{
			TaskID:    task.ID,
			Amount:    amount.StringFixed(2),
			Note:      pgtype.Text{String: req.Note, Valid: req.Note != ""},
			CreatedBy: claims.UserID,
		})
		if err != nil {
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		logger.Info("Valuation recorded", "task_id", task.ID, "amount", v.Amount, "created_by", claims.UserID)
		writeJSON(w, http.StatusCreated, v)
	}
}

func ListValuationsHandler(db store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mustClaims(w, r)
		if !ok {
			return
		}
		task, ok := loadTask(w, r, db, claims)
		if !ok {
			return
		}

		vs, err := db.ListValuationsByTask(r.Context(), task.ID)
		if err != nil {
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if vs == nil {
			vs = []sqlc.Valuation{}
		}
		writeJSON(w, http.StatusOK, vs)
	}
}
