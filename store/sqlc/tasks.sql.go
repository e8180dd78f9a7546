package sqlc

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const taskColumns = `t.id, t.title, t.description, t.assignee_id, t.created_by, t.status,
	t.task_start_time, t.task_end_time, t.elapsed_hours::float8, t.created_at`

const createTask = `-- name: CreateTask :one
INSERT INTO tasks AS t (id, title, description, assignee_id, created_by, status, task_start_time)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + taskColumns

type CreateTaskParams struct {
	ID            string             `db:"id"`
	Title         string             `db:"title"`
	Description   pgtype.Text        `db:"description"`
	AssigneeID    int32              `db:"assignee_id"`
	CreatedBy     int32              `db:"created_by"`
	Status        string             `db:"status"`
	TaskStartTime pgtype.Timestamptz `db:"task_start_time"`
}

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (Task, error) {
	row := q.db.QueryRow(ctx, createTask,
		arg.ID,
		arg.Title,
		arg.Description,
		arg.AssigneeID,
		arg.CreatedBy,
		arg.Status,
		arg.TaskStartTime,
	)
	return scanTask(row)
}

const getTask = `-- name: GetTask :one
SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`

func (q *Queries) GetTask(ctx context.Context, id string) (Task, error) {
	return scanTask(q.db.QueryRow(ctx, getTask, id))
}

const taskFilter = `
WHERE ($1::int = 0 OR t.assignee_id = $1::int)
	AND ($2::text = '' OR t.status = $2::text)
	AND ($3::text = '' OR
		 t.title ILIKE '%' || $3::text || '%' OR
		 COALESCE(t.description, '') ILIKE '%' || $3::text || '%')`

const listTasks = `-- name: ListTasks :many
SELECT ` + taskColumns + ` FROM tasks t` + taskFilter + `
ORDER BY t.created_at DESC
LIMIT $4::int OFFSET $5::int`

type ListTasksParams struct {
	AssigneeID int32  `db:"assignee_id"`
	Status     string `db:"status"`
	SearchTerm string `db:"search_term"`
	PageSize   int32  `db:"page_size"`
	OffsetVal  int32  `db:"offset_val"`
}

func (q *Queries) ListTasks(ctx context.Context, arg ListTasksParams) ([]Task, error) {
	return q.queryTasks(ctx, listTasks,
		arg.AssigneeID,
		arg.Status,
		arg.SearchTerm,
		arg.PageSize,
		arg.OffsetVal,
	)
}

const countTasks = `-- name: CountTasks :one
SELECT COUNT(*)::int FROM tasks t` + taskFilter

type CountTasksParams struct {
	AssigneeID int32  `db:"assignee_id"`
	Status     string `db:"status"`
	SearchTerm string `db:"search_term"`
}

func (q *Queries) CountTasks(ctx context.Context, arg CountTasksParams) (int32, error) {
	row := q.db.QueryRow(ctx, countTasks, arg.AssigneeID, arg.Status, arg.SearchTerm)
	var count int32
	err := row.Scan(&count)
	return count, err
}

const updateTaskStatus = `-- name: UpdateTaskStatus :one
UPDATE tasks AS t
SET status = $2, task_start_time = COALESCE(t.task_start_time, $3)
WHERE t.id = $1 AND t.status = $4
RETURNING ` + taskColumns

type UpdateTaskStatusParams struct {
	ID            string             `db:"id"`
	Status        string             `db:"status"`
	TaskStartTime pgtype.Timestamptz `db:"task_start_time"`
	// FromStatus is the status the row must still have.
	FromStatus string `db:"from_status"`
}

func (q *Queries) UpdateTaskStatus(ctx context.Context, arg UpdateTaskStatusParams) (Task, error) {
	return scanTask(q.db.QueryRow(ctx, updateTaskStatus, arg.ID, arg.Status, arg.TaskStartTime, arg.FromStatus))
}

const completeTask = `-- name: CompleteTask :one
UPDATE tasks AS t
SET status = 'done',
	task_start_time = $2,
	task_end_time = $3,
	elapsed_hours = $4::float8::numeric(10,2)
WHERE t.id = $1 AND t.status <> 'done'
RETURNING ` + taskColumns

type CompleteTaskParams struct {
	ID            string    `db:"id"`
	TaskStartTime time.Time `db:"task_start_time"`
	TaskEndTime   time.Time `db:"task_end_time"`
	ElapsedHours  float64   `db:"elapsed_hours"`
}

func (q *Queries) CompleteTask(ctx context.Context, arg CompleteTaskParams) (Task, error) {
	return scanTask(q.db.QueryRow(ctx, completeTask, arg.ID, arg.TaskStartTime, arg.TaskEndTime, arg.ElapsedHours))
}

const updateTaskElapsedHours = `-- name: UpdateTaskElapsedHours :exec
UPDATE tasks SET elapsed_hours = $2::float8::numeric(10,2) WHERE id = $1`

type UpdateTaskElapsedHoursParams struct {
	ID           string  `db:"id"`
	ElapsedHours float64 `db:"elapsed_hours"`
}

func (q *Queries) UpdateTaskElapsedHours(ctx context.Context, arg UpdateTaskElapsedHoursParams) error {
	_, err := q.db.Exec(ctx, updateTaskElapsedHours, arg.ID, arg.ElapsedHours)
	return err
}

const deleteTask = `-- name: DeleteTask :execrows
DELETE FROM tasks WHERE id = $1`

func (q *Queries) DeleteTask(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTask, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listDoneTasksSince = `-- name: ListDoneTasksSince :many
SELECT ` + taskColumns + ` FROM tasks t
WHERE t.status = 'done' AND t.task_end_time >= $1
ORDER BY t.task_end_time`

func (q *Queries) ListDoneTasksSince(ctx context.Context, since time.Time) ([]Task, error) {
	return q.queryTasks(ctx, listDoneTasksSince, since)
}

const listCompletedTasksBetween = `-- name: ListCompletedTasksBetween :many
SELECT ` + taskColumns + `,
	u.username,
	u.full_name,
	u.monthly_salary::text,
	COALESCE((SELECT SUM(v.amount) FROM valuations v WHERE v.task_id = t.id), 0)::text AS value
FROM tasks t
JOIN users u ON u.id = t.assignee_id
WHERE t.status = 'done'
	AND t.task_end_time >= $1::timestamptz
	AND t.task_end_time < $2::timestamptz
ORDER BY u.username, t.task_end_time`

type CompletedTaskRow struct {
	Task
	AssigneeUsername string `json:"assignee_username"`
	AssigneeFullName string `json:"assignee_full_name"`
	MonthlySalary    string `json:"monthly_salary"`
	Value            string `json:"value"`
}

func (q *Queries) ListCompletedTasksBetween(ctx context.Context, start, end time.Time) ([]CompletedTaskRow, error) {
	rows, err := q.db.Query(ctx, listCompletedTasksBetween, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CompletedTaskRow{}
	for rows.Next() {
		var i CompletedTaskRow
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&i.Description,
			&i.AssigneeID,
			&i.CreatedBy,
			&i.Status,
			&i.TaskStartTime,
			&i.TaskEndTime,
			&i.ElapsedHours,
			&i.CreatedAt,
			&i.AssigneeUsername,
			&i.AssigneeFullName,
			&i.MonthlySalary,
			&i.Value,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) queryTasks(ctx context.Context, query string, args ...interface{}) ([]Task, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Task{}
	for rows.Next() {
		i, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanTask(row scanner) (Task, error) {
	var i Task
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Description,
		&i.AssigneeID,
		&i.CreatedBy,
		&i.Status,
		&i.TaskStartTime,
		&i.TaskEndTime,
		&i.ElapsedHours,
		&i.CreatedAt,
	)
	return i, err
}
