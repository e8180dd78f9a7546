package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/akawula/TaskMatic/internal/timeutils"
	"github.com/akawula/TaskMatic/slack"
	"github.com/akawula/TaskMatic/store"
	"github.com/akawula/TaskMatic/store/sqlc"
)

// Store is the part of store.Store the lifecycle needs.
type Store interface {
	GetTask(ctx context.Context, id string) (sqlc.Task, error)
	GetUserByID(ctx context.Context, id int32) (sqlc.User, error)
	UpdateTaskStatus(ctx context.Context, arg sqlc.UpdateTaskStatusParams) (sqlc.Task, error)
	CompleteTask(ctx context.Context, arg sqlc.CompleteTaskParams) (sqlc.Task, error)
	UpdateTaskElapsedHours(ctx context.Context, arg sqlc.UpdateTaskElapsedHoursParams) error
}

type Service struct {
	Store    Store
	Calendar timeutils.WorkingCalendar
	Notifier slack.Notifier
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// BaseURL, when set, is used to link notifications to the task.
	BaseURL string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// StartTime is the moment elapsed hours are counted from: the stamped start
// time, or the creation time for tasks completed straight from todo.
func StartTime(t sqlc.Task) time.Time {
	if t.TaskStartTime.Valid {
		return t.TaskStartTime.Time
	}
	return t.CreatedAt
}

// ChangeStatus moves a task to status on behalf of actor. Completing a task
// stamps its end time and stores the elapsed business hours in the same
// update.
func (s *Service) ChangeStatus(ctx context.Context, taskID string, actor Actor, status string) (sqlc.Task, error) {
	to, err := ParseStatus(status)
	if err != nil {
		return sqlc.Task{}, err
	}

	task, err := s.Store.GetTask(ctx, taskID)
	if err != nil {
		return sqlc.Task{}, err
	}
	if !actor.CanAccess(task.AssigneeID) {
		return sqlc.Task{}, ErrForbidden
	}

	from, err := ParseStatus(task.Status)
	if err != nil {
		return sqlc.Task{}, err
	}
	if err := CanTransition(from, to); err != nil {
		return sqlc.Task{}, err
	}

	now := s.now()

	if to != StatusDone {
		arg := sqlc.UpdateTaskStatusParams{ID: taskID, Status: string(to), FromStatus: string(from)}
		if to == StatusInProgress {
			arg.TaskStartTime = pgtype.Timestamptz{Time: now, Valid: true}
		}
		updated, err := s.Store.UpdateTaskStatus(ctx, arg)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return sqlc.Task{}, s.lostRace(ctx, taskID)
			}
			return sqlc.Task{}, fmt.Errorf("failed to update task %s: %w", taskID, err)
		}
		s.Logger.Info("Task status changed", "task_id", taskID, "from", from, "to", to, "user_id", actor.UserID)
		return updated, nil
	}

	start := StartTime(task)
	hours := timeutils.CalculateElapsedHours(start, now, s.Calendar)

	done, err := s.Store.CompleteTask(ctx, sqlc.CompleteTaskParams{
		ID:            taskID,
		TaskStartTime: start,
		TaskEndTime:   now,
		ElapsedHours:  hours,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Completed concurrently between the read and the update.
			return sqlc.Task{}, ErrTerminalStatus
		}
		return sqlc.Task{}, fmt.Errorf("failed to complete task %s: %w", taskID, err)
	}
	s.Logger.Info("Task completed", "task_id", taskID, "from", from, "elapsed_hours", hours, "user_id", actor.UserID)

	s.notify(ctx, done)
	return done, nil
}

// lostRace explains a guarded update that matched no row.
func (s *Service) lostRace(ctx context.Context, taskID string) error {
	current, err := s.Store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if current.Status == string(StatusDone) {
		return ErrTerminalStatus
	}
	return ErrStatusChanged
}

// notify never fails the transition.
func (s *Service) notify(ctx context.Context, t sqlc.Task) {
	if s.Notifier == nil {
		return
	}
	assignee := strconv.Itoa(int(t.AssigneeID))
	if u, err := s.Store.GetUserByID(ctx, t.AssigneeID); err == nil {
		assignee = u.Username
	} else {
		s.Logger.Warn("Failed to resolve assignee for notification", "task_id", t.ID, "error", err)
	}

	if err := s.Notifier.TaskCompleted(ctx, NewEvent(t, assignee, s.BaseURL)); err != nil {
		s.Logger.Error("Failed to send task notification", "task_id", t.ID, "error", err)
	}
}

// Recompute recalculates elapsed hours of a done task from its stored
// timestamps with the current calendar and persists the value when it changed.
func (s *Service) Recompute(ctx context.Context, t sqlc.Task) (hours float64, changed bool, err error) {
	if t.Status != string(StatusDone) || !t.TaskEndTime.Valid {
		return 0, false, fmt.Errorf("task %s is not done", t.ID)
	}

	hours = timeutils.CalculateElapsedHours(StartTime(t), t.TaskEndTime.Time, s.Calendar)
	if t.ElapsedHours.Valid && t.ElapsedHours.Float64 == hours {
		return hours, false, nil
	}

	if err := s.Store.UpdateTaskElapsedHours(ctx, sqlc.UpdateTaskElapsedHoursParams{ID: t.ID, ElapsedHours: hours}); err != nil {
		return 0, false, fmt.Errorf("failed to store elapsed hours for %s: %w", t.ID, err)
	}
	s.Logger.Debug("Elapsed hours recomputed", "task_id", t.ID, "old", t.ElapsedHours.Float64, "new", hours)
	return hours, true, nil
}

// NewEvent builds the notification payload for a completed task.
func NewEvent(t sqlc.Task, assignee, baseURL string) slack.TaskEvent {
	ev := slack.TaskEvent{
		TaskID:       t.ID,
		Title:        t.Title,
		Assignee:     assignee,
		StartedAt:    StartTime(t),
		FinishedAt:   t.TaskEndTime.Time,
		ElapsedHours: t.ElapsedHours.Float64,
	}
	if baseURL != "" {
		ev.URL = strings.TrimRight(baseURL, "/") + "/tasks/" + t.ID
	}
	return ev
}
