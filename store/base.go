package store

import (
	"context"
	"errors"
	"time"

	"github.com/akawula/TaskMatic/store/sqlc"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("already exists")
)

type Store interface {
	Close()

	CreateUser(ctx context.Context, arg sqlc.CreateUserParams) (sqlc.User, error)
	GetUserByUsername(ctx context.Context, username string) (sqlc.User, error)
	GetUserByID(ctx context.Context, id int32) (sqlc.User, error)
	ListUsers(ctx context.Context) ([]sqlc.User, error)

	CreateTask(ctx context.Context, arg sqlc.CreateTaskParams) (sqlc.Task, error)
	GetTask(ctx context.Context, id string) (sqlc.Task, error)
	// ListTasks returns one page of tasks plus the total number of matches.
	ListTasks(ctx context.Context, filter TaskFilter, page, pageSize int) ([]sqlc.Task, int, error)
	UpdateTaskStatus(ctx context.Context, arg sqlc.UpdateTaskStatusParams) (sqlc.Task, error)
	CompleteTask(ctx context.Context, arg sqlc.CompleteTaskParams) (sqlc.Task, error)
	UpdateTaskElapsedHours(ctx context.Context, arg sqlc.UpdateTaskElapsedHoursParams) error
	DeleteTask(ctx context.Context, id string) error
	ListDoneTasksSince(ctx context.Context, since time.Time) ([]sqlc.Task, error)
	ListCompletedTasksBetween(ctx context.Context, start, end time.Time) ([]sqlc.CompletedTaskRow, error)

	CreateValuation(ctx context.Context, arg sqlc.CreateValuationParams) (sqlc.Valuation, error)
	ListValuationsByTask(ctx context.Context, taskID string) ([]sqlc.Valuation, error)
}

// TaskFilter narrows ListTasks. Zero values mean "any".
type TaskFilter struct {
	AssigneeID int32
	Status     string
	Search     string
}

func calculateOffset(page, limit int) (offset int) {
	offset = (page - 1) * limit

	if page == 1 {
		offset = 0
	}

	return
}
