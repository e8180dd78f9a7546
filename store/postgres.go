package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akawula/TaskMatic/store/sqlc"
)

// uniqueViolation is the SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

type Postgres struct {
	connPool *pgxpool.Pool
	queries  *sqlc.Queries
	Logger   *slog.Logger
}

// NewPostgres opens a pgx connection pool and verifies it with a ping.
func NewPostgres(ctx context.Context, connString string, logger *slog.Logger) (Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	return &Postgres{connPool: pool, queries: sqlc.New(pool), Logger: logger}, nil
}

// Close closes the database connection pool.
func (p *Postgres) Close() {
	p.connPool.Close()
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (p *Postgres) CreateUser(ctx context.Context, arg sqlc.CreateUserParams) (sqlc.User, error) {
	user, err := p.queries.CreateUser(ctx, arg)
	if err != nil {
		p.Logger.Error("Failed to create user", "username", arg.Username, "error", err)
		return sqlc.User{}, translate(err)
	}
	return user, nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (sqlc.User, error) {
	user, err := p.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			p.Logger.Error("Failed to get user by username", "username", username, "error", err)
		}
		return sqlc.User{}, translate(err)
	}
	return user, nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id int32) (sqlc.User, error) {
	user, err := p.queries.GetUserByID(ctx, id)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			p.Logger.Error("Failed to get user by id", "user_id", id, "error", err)
		}
		return sqlc.User{}, translate(err)
	}
	return user, nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]sqlc.User, error) {
	users, err := p.queries.ListUsers(ctx)
	if err != nil {
		p.Logger.Error("Failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

func (p *Postgres) CreateTask(ctx context.Context, arg sqlc.CreateTaskParams) (sqlc.Task, error) {
	task, err := p.queries.CreateTask(ctx, arg)
	if err != nil {
		p.Logger.Error("Failed to create task", "task_id", arg.ID, "assignee_id", arg.AssigneeID, "error", err)
		return sqlc.Task{}, translate(err)
	}
	return task, nil
}

func (p *Postgres) GetTask(ctx context.Context, id string) (sqlc.Task, error) {
	task, err := p.queries.GetTask(ctx, id)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			p.Logger.Error("Failed to get task", "task_id", id, "error", err)
		}
		return sqlc.Task{}, translate(err)
	}
	return task, nil
}

// ListTasks runs the page query and the count query with the same filter.
func (p *Postgres) ListTasks(ctx context.Context, filter TaskFilter, page, pageSize int) ([]sqlc.Task, int, error) {
	offset := calculateOffset(page, pageSize)
	p.Logger.Debug("Fetching tasks", "filter", filter, "limit", pageSize, "offset", offset)

	total, err := p.queries.CountTasks(ctx, sqlc.CountTasksParams{
		AssigneeID: filter.AssigneeID,
		Status:     filter.Status,
		SearchTerm: filter.Search,
	})
	if err != nil {
		p.Logger.Error("can't count tasks", "error", err)
		return nil, 0, err
	}

	tasks, err := p.queries.ListTasks(ctx, sqlc.ListTasksParams{
		AssigneeID: filter.AssigneeID,
		Status:     filter.Status,
		SearchTerm: filter.Search,
		PageSize:   int32(pageSize),
		OffsetVal:  int32(offset),
	})
	if err != nil {
		p.Logger.Error("can't fetch tasks", "error", err)
		return nil, 0, err
	}

	return tasks, int(total), nil
}

// UpdateTaskStatus moves a task out of arg.FromStatus. It returns ErrNotFound
// when the task is missing or its status changed since it was read.
func (p *Postgres) UpdateTaskStatus(ctx context.Context, arg sqlc.UpdateTaskStatusParams) (sqlc.Task, error) {
	task, err := p.queries.UpdateTaskStatus(ctx, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sqlc.Task{}, ErrNotFound
		}
		p.Logger.Error("Failed to update task status", "task_id", arg.ID, "status", arg.Status, "error", err)
		return sqlc.Task{}, translate(err)
	}
	return task, nil
}

// CompleteTask stores the terminal status, end time and elapsed hours in one
// statement. It returns ErrNotFound when the task is missing or already done.
func (p *Postgres) CompleteTask(ctx context.Context, arg sqlc.CompleteTaskParams) (sqlc.Task, error) {
	task, err := p.queries.CompleteTask(ctx, arg)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			p.Logger.Error("Failed to complete task", "task_id", arg.ID, "error", err)
		}
		return sqlc.Task{}, translate(err)
	}
	return task, nil
}

func (p *Postgres) UpdateTaskElapsedHours(ctx context.Context, arg sqlc.UpdateTaskElapsedHoursParams) error {
	if err := p.queries.UpdateTaskElapsedHours(ctx, arg); err != nil {
		p.Logger.Error("Failed to update elapsed hours", "task_id", arg.ID, "error", err)
		return err
	}
	return nil
}

func (p *Postgres) DeleteTask(ctx context.Context, id string) error {
	n, err := p.queries.DeleteTask(ctx, id)
	if err != nil {
		p.Logger.Error("Failed to delete task", "task_id", id, "error", err)
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListDoneTasksSince(ctx context.Context, since time.Time) ([]sqlc.Task, error) {
	tasks, err := p.queries.ListDoneTasksSince(ctx, since)
	if err != nil {
		p.Logger.Error("Failed to list done tasks", "since", since, "error", err)
		return nil, err
	}
	return tasks, nil
}

func (p *Postgres) ListCompletedTasksBetween(ctx context.Context, start, end time.Time) ([]sqlc.CompletedTaskRow, error) {
	rows, err := p.queries.ListCompletedTasksBetween(ctx, start, end)
	if err != nil {
		p.Logger.Error("Failed to list completed tasks", "start", start, "end", end, "error", err)
		return nil, err
	}
	return rows, nil
}

func (p *Postgres) CreateValuation(ctx context.Context, arg sqlc.CreateValuationParams) (sqlc.Valuation, error) {
	v, err := p.queries.CreateValuation(ctx, arg)
	if err != nil {
		p.Logger.Error("Failed to create valuation", "task_id", arg.TaskID, "error", err)
		return sqlc.Valuation{}, translate(err)
	}
	return v, nil
}

func (p *Postgres) ListValuationsByTask(ctx context.Context, taskID string) ([]sqlc.Valuation, error) {
	vs, err := p.queries.ListValuationsByTask(ctx, taskID)
	if err != nil {
		p.Logger.Error("Failed to list valuations", "task_id", taskID, "error", err)
		return nil, err
	}
	return vs, nil
}
