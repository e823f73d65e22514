package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taskmint-app/taskmint/internal/domain"
)

const taskColumns = `id, creator_id, question, question_type, choices, correct_answer,
	reward_per_completion, max_acceptances, escrow_balance, status, starts_at, ends_at,
	created_at, updated_at`

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.CreatorID, &t.Question, &t.QuestionType, &t.Choices, &t.CorrectAnswer,
		&t.RewardPerCompletion, &t.MaxAcceptances, &t.EscrowBalance, &t.Status,
		&t.StartsAt, &t.EndsAt, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

type CreateTaskParams struct {
	CreatorID           *int64
	Question            string
	QuestionType        domain.QuestionType
	Choices             []string
	CorrectAnswer       string
	RewardPerCompletion int64
	MaxAcceptances      int
	EscrowBalance       int64
	StartsAt            *time.Time
	EndsAt              *time.Time
}

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (domain.Task, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tasks (creator_id, question, question_type, choices, correct_answer,
			reward_per_completion, max_acceptances, escrow_balance, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+taskColumns,
		arg.CreatorID, arg.Question, arg.QuestionType, arg.Choices, arg.CorrectAnswer,
		arg.RewardPerCompletion, arg.MaxAcceptances, arg.EscrowBalance, arg.StartsAt, arg.EndsAt,
	)
	return scanTask(row)
}

func (q *Queries) GetTaskByID(ctx context.Context, id int64) (domain.Task, error) {
	row := q.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

// GetTaskForUpdate locks the task row for the rest of the enclosing
// transaction. Concurrent settlements of the same task queue up here.
func (q *Queries) GetTaskForUpdate(ctx context.Context, id int64) (domain.Task, error) {
	row := q.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id)
	return scanTask(row)
}

func (q *Queries) ListOpenTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE status = 'open'
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// DebitTaskEscrow subtracts amount from the task's escrow and returns the
// new balance. The CHECK constraint keeps the balance from going negative
// even if a caller skips the pre-check.
func (q *Queries) DebitTaskEscrow(ctx context.Context, id int64, amount int64) (int64, error) {
	var balance int64
	err := q.db.QueryRow(ctx, `
		UPDATE tasks
		SET escrow_balance = escrow_balance - $2, updated_at = now()
		WHERE id = $1
		RETURNING escrow_balance`,
		id, amount,
	).Scan(&balance)
	return balance, err
}

func (q *Queries) SetTaskStatus(ctx context.Context, id int64, status domain.TaskStatus) error {
	_, err := q.db.Exec(ctx, `
		UPDATE tasks SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	return err
}
