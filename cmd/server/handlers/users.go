package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/akawula/TaskMatic/cmd/server/auth"
	"github.com/akawula/TaskMatic/store"
	"github.com/akawula/TaskMatic/store/sqlc"
)

type CreateUserRequest struct {
	Username      string `json:"username" validate:"required,min=3,max=64"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
	FullName      string `json:"full_name" validate:"max=200"`
	Role          string `json:"role" validate:"required,oneof=manager employee"`
	MonthlySalary string `json:"monthly_salary" validate:"omitempty,numeric"`
}

// MeHandler returns the claims of the current token.
func MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":  claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
	})
}

func CreateUserHandler(logger *slog.Logger, db store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeJSON[CreateUserRequest](r)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		salary := decimal.Zero
		if req.MonthlySalary != "" {
			salary, err = decimal.NewFromString(req.MonthlySalary)
			if err != nil || salary.IsNegative() {
				writeJSONError(w, "monthly_salary must be a non-negative amount", http.StatusBadRequest)
				return
			}
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("Failed to hash password", "error", err)
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		user, err := db.CreateUser(r.Context(), sqlc.CreateUserParams{
			Username:       req.Username,
			HashedPassword: string(hashed),
			FullName:       req.FullName,
			Role:           req.Role,
			MonthlySalary:  salary.StringFixed(2),
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				writeJSONError(w, "Username already exists", http.StatusConflict)
				return
			}
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		logger.Info("User created", "user_id", user.ID, "username", user.Username, "role", user.Role)
		writeJSON(w, http.StatusCreated, user)
	}
}

func ListUsersHandler(logger *slog.Logger, db store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := db.ListUsers(r.Context())
		if err != nil {
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if users == nil {
			users = []sqlc.User{}
		}
		logger.Debug("Listed users", "count", len(users))
		writeJSON(w, http.StatusOK, users)
	}
}
