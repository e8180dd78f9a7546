package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const valuationColumns = `id, task_id, amount::text, note, created_by, created_at`

const createValuation = `-- name: CreateValuation :one
INSERT INTO valuations (task_id, amount, note, created_by)
VALUES ($1, $2::numeric, $3, $4)
RETURNING ` + valuationColumns

type CreateValuationParams struct {
	TaskID    string      `db:"task_id"`
	Amount    string      `db:"amount"`
	Note      pgtype.Text `db:"note"`
	CreatedBy int32       `db:"created_by"`
}

func (q *Queries) CreateValuation(ctx context.Context, arg CreateValuationParams) (Valuation, error) {
	row := q.db.QueryRow(ctx, createValuation, arg.TaskID, arg.Amount, arg.Note, arg.CreatedBy)
	var i Valuation
	err := row.Scan(
		&i.ID,
		&i.TaskID,
		&i.Amount,
		&i.Note,
		&i.CreatedBy,
		&i.CreatedAt,
	)
	return i, err
}

const listValuationsByTask = `-- name: ListValuationsByTask :many
SELECT ` + valuationColumns + ` FROM valuations WHERE task_id = $1 ORDER BY created_at`

func (q *Queries) ListValuationsByTask(ctx context.Context, taskID string) ([]Valuation, error) {
	rows, err := q.db.Query(ctx, listValuationsByTask, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Valuation{}
	for rows.Next() {
		var i Valuation
		if err := rows.Scan(
			&i.ID,
			&i.TaskID,
			&i.Amount,
			&i.Note,
			&i.CreatedBy,
			&i.CreatedAt,
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
