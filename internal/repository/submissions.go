package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskmint-app/taskmint/internal/domain"
)

const submissionColumns = `id, task_id, user_id, answer, is_correct, awarded_points, validated_at`

type CreateSubmissionParams struct {
	ID            uuid.UUID
	TaskID        int64
	UserID        int64
	Answer        string
	IsCorrect     bool
	AwardedPoints int64
}

func (q *Queries) CreateSubmission(ctx context.Context, arg CreateSubmissionParams) (domain.Submission, error) {
	var s domain.Submission
	err := q.db.QueryRow(ctx, `
		INSERT INTO submissions (id, task_id, user_id, answer, is_correct, awarded_points)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+submissionColumns,
		arg.ID, arg.TaskID, arg.UserID, arg.Answer, arg.IsCorrect, arg.AwardedPoints,
	).Scan(&s.ID, &s.TaskID, &s.UserID, &s.Answer, &s.IsCorrect, &s.AwardedPoints, &s.ValidatedAt)
	return s, err
}

func (q *Queries) HasSubmission(ctx context.Context, taskID, userID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM submissions WHERE task_id = $1 AND user_id = $2)`,
		taskID, userID,
	).Scan(&exists)
	return exists, err
}

func (q *Queries) CountCorrectSubmissions(ctx context.Context, taskID int64) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM submissions WHERE task_id = $1 AND is_correct`,
		taskID,
	).Scan(&count)
	return count, err
}

func (q *Queries) ListSubmissionsByUser(ctx context.Context, userID int64) ([]domain.Submission, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE user_id = $1
		ORDER BY validated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		var s domain.Submission
		if err := rows.Scan(&s.ID, &s.TaskID, &s.UserID, &s.Answer, &s.IsCorrect, &s.AwardedPoints, &s.ValidatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
