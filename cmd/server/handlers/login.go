package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/akawula/TaskMatic/store"
	"github.com/akawula/TaskMatic/store/sqlc"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateJWT(userID int32, username, role string) (string, error)
}

// UserLookup is what LoginHandler needs from the store.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (sqlc.User, error)
}

type LoginCredentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginHandler handles user login requests using database validation.
func LoginHandler(logger *slog.Logger, db UserLookup, issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := decodeJSON[LoginCredentials](r)
		if err != nil {
			// Missing fields are reported like any other failed login.
			writeJSONError(w, "Wrong login or password", http.StatusUnauthorized)
			return
		}

		user, err := db.GetUserByUsername(r.Context(), creds.Username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeJSONError(w, "Wrong login or password", http.StatusUnauthorized)
			} else {
				logger.Error("Error getting user by username", "username", creds.Username, "error", err)
				writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(creds.Password)); err != nil {
			writeJSONError(w, "Wrong login or password", http.StatusUnauthorized)
			return
		}

		tokenString, err := issuer.GenerateJWT(user.ID, user.Username, user.Role)
		if err != nil {
			logger.Error("Error generating JWT", "user_id", user.ID, "error", err)
			writeJSONError(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
		writeJSON(w, http.StatusOK, LoginResponse{Token: tokenString, Username: user.Username, Role: user.Role})
	}
}
