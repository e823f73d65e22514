package repository

import (
	"context"

	"github.com/taskmint-app/taskmint/internal/domain"
)

type CreateLedgerEntryParams struct {
	UserID      *int64
	TaskID      *int64
	Amount      int64
	EntryType   domain.EntryType
	Description string
}

func (q *Queries) CreateLedgerEntry(ctx context.Context, arg CreateLedgerEntryParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO point_ledger (user_id, task_id, amount, entry_type, description)
		VALUES ($1, $2, $3, $4, $5)`,
		arg.UserID, arg.TaskID, arg.Amount, arg.EntryType, arg.Description,
	)
	return err
}
