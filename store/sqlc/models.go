package sqlc

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             int32     `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	MonthlySalary  string    `json:"monthly_salary"` // numeric rendered as text
	CreatedAt      time.Time `json:"created_at"`
}

type Task struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Description   pgtype.Text        `json:"description"`
	AssigneeID    int32              `json:"assignee_id"`
	CreatedBy     int32              `json:"created_by"`
	Status        string             `json:"status"`
	TaskStartTime pgtype.Timestamptz `json:"task_start_time"`
	TaskEndTime   pgtype.Timestamptz `json:"task_end_time"`
	ElapsedHours  pgtype.Float8      `json:"elapsed_hours"`
	CreatedAt     time.Time          `json:"created_at"`
}

type Valuation struct {
	ID        int32       `json:"id"`
	TaskID    string      `json:"task_id"`
	Amount    string      `json:"amount"` // numeric rendered as text
	Note      pgtype.Text `json:"note"`
	CreatedBy int32       `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}
