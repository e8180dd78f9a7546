package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/akawula/TaskMatic/cmd/server/auth"
	"github.com/akawula/TaskMatic/internal/tasks"
	"github.com/akawula/TaskMatic/store"
	"github.com/akawula/TaskMatic/store/sqlc"
)

type TaskAPI struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssigneeID   int32      `json:"assignee_id"`
	CreatedBy    int32      `json:"created_by"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"task_start_time"`
	FinishedAt   *time.Time `json:"task_end_time"`
	ElapsedHours *float64   `json:"elapsed_hours"`
	CreatedAt    time.Time  `json:"created_at"`
}

type TaskListResponseAPI struct {
	Tasks      []TaskAPI `json:"tasks"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	AssigneeID  int32  `json:"assignee_id" validate:"required,gt=0"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func taskToAPI(t sqlc.Task) TaskAPI {
	api := TaskAPI{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description.String,
		AssigneeID:  t.AssigneeID,
		CreatedBy:   t.CreatedBy,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
	}
	if t.TaskStartTime.Valid {
		started := t.TaskStartTime.Time
		api.StartedAt = &started
	}
	if t.TaskEndTime.Valid {
		finished := t.TaskEndTime.Time
		api.FinishedAt = &finished
	}
	if t.ElapsedHours.Valid {
		hours := t.ElapsedHours.Float64
		api.ElapsedHours = &hours
	}
	return api
}

func mustClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
	}
	return claims, ok
}

// loadTask fetches the task in the URL and checks the caller may see it.
func loadTask(w http.ResponseWriter, r *http.Request, db store.Store, claims *auth.Claims) (sqlc.Task, bool) {
	task, err := db.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err == nil && !claims.Actor().CanAccess(task.AssigneeID) {
		err = tasks.ErrForbidden
	}
	if err != nil {
		status := statusFor(err)
		msg := http.StatusText(status)
		if status != http.StatusInternalServerError {
			msg = err.Error()
		}
		writeJSONError(w, msg, status)
		return sqlc.Task{}, false
	}
	return task, true
}

func CreateTaskHandler(logger *slog.Logger, db store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mustClaims(w, r)
		if !ok {
			return
		}
		req, err := decodeJSON[CreateTaskRequest](r)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if _, err := db.GetUserByID(r.Context(), req.AssigneeID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeJSONError(w, "Unknown assignee", http.StatusBadRequest)
				return
			}
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		task, err := db.CreateTask(r.Context(), sqlc.CreateTaskParams{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: pgtype.Text{String: req.Description, Valid: req.Description != ""},
			AssigneeID:  req.AssigneeID,
			CreatedBy:   claims.UserID,
			Status:      string(tasks.StatusTodo),
		})
		if err != nil {
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		logger.Info("Task created", "task_id", task.ID, "assignee_id", task.AssigneeID, "created_by", claims.UserID)
		writeJSON(w, http.StatusCreated, taskToAPI(task))
	}
}

// ListTasksHandler lists tasks. Employees only ever see their own; managers
// may filter by assignee_id.
func ListTasksHandler(logger *slog.Logger, db store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mustClaims(w, r)
		if !ok {
			return
		}

		page, pageSize, err := pagination(r)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		filter := store.TaskFilter{Search: r.URL.Query().Get("search")}
		if s := r.URL.Query().Get("status"); s != "" {
			st, err := tasks.ParseStatus(s)
			if err != nil {
				writeJSONError(w, err.Error(), http.StatusBadRequest)
				return
			}
			filter.Status = string(st)
		}
		if claims.Role == tasks.RoleManager {
			if s := r.URL.Query().Get("assignee_id"); s != "" {
				id, err := strconv.ParseInt(s, 10, 32)
				if err != nil || id < 1 {
					writeJSONError(w, "Invalid assignee_id", http.StatusBadRequest)
					return
				}
				filter.AssigneeID = int32(id)
			}
		} else {
			filter.AssigneeID = claims.UserID
		}

		logger.Debug("Fetching tasks", "filter", filter, "page", page, "page_size", pageSize)
		list, total, err := db.ListTasks(r.Context(), filter, page, pageSize)
		if err != nil {
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := TaskListResponseAPI{
			Tasks:      make([]TaskAPI, 0, len(list)),
			TotalCount: total,
			Page:       page,
			PageSize:   pageSize,
		}
		for _, t := range list {
			resp.Tasks = append(resp.Tasks, taskToAPI(t))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func GetTaskHandler(db store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mustClaims(w, r)
		if !ok {
			return
		}
		task, ok := loadTask(w, r, db, claims)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, taskToAPI(task))
	}
}

func DeleteTaskHandler(logger *slog.Logger, db store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := db.DeleteTask(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeJSONError(w, "Task not found", http.StatusNotFound)
				return
			}
			writeJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		logger.Info("Task deleted", "task_id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ChangeStatusHandler runs a lifecycle transition.
func ChangeStatusHandler(logger *slog.Logger, svc *tasks.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mustClaims(w, r)
		if !ok {
			return
		}
		req, err := decodeJSON[ChangeStatusRequest](r)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		task, err := svc.ChangeStatus(r.Context(), chi.URLParam(r, "id"), claims.Actor(), req.Status)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				logger.Error("Failed to change task status", "task_id", chi.URLParam(r, "id"), "error", err)
				writeJSONError(w, "Internal server error", status)
				return
			}
			writeJSONError(w, err.Error(), status)
			return
		}
		writeJSON(w, http.StatusOK, taskToAPI(task))
	}
}
