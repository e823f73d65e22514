package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmint-app/taskmint/internal/domain"
	"github.com/taskmint-app/taskmint/internal/repository"
)

// SettlementService settles task submissions: it validates the answer
// and, when correct, moves the reward from the task's escrow to the
// submitter inside a single transaction.
type SettlementService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
}

func NewSettlementService(db *pgxpool.Pool, queries *repository.Queries) *SettlementService {
	return &SettlementService{db: db, queries: queries}
}

// Submit runs one settlement. The task row is locked with
// SELECT ... FOR UPDATE for the whole transaction, so submissions to the
// same task are strictly serialized while other tasks stay unaffected.
//
// Eligibility is checked in a fixed order; the first violation aborts
// with the matching domain sentinel and no persisted effect. The one
// exception is an exhausted escrow on a correct answer: the task is
// closed (and that closure committed) but no submission is recorded and
// nothing is debited or credited.
func (s *SettlementService) Submit(ctx context.Context, taskID, userID int64, answer string) (*domain.SettlementResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	task, err := qtx.GetTaskForUpdate(ctx, taskID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("lock task: %w", err)
	}

	if task.Status != domain.TaskStatusOpen {
		return nil, domain.ErrTaskClosed
	}

	started, ended := task.WithinWindow(time.Now())
	if !started {
		return nil, domain.ErrTaskNotStarted
	}
	if ended {
		return nil, domain.ErrTaskExpired
	}

	if task.CreatorID != nil && *task.CreatorID == userID {
		return nil, domain.ErrSelfSubmission
	}

	submitted, err := qtx.HasSubmission(ctx, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("check submission: %w", err)
	}
	if submitted {
		return nil, domain.ErrAlreadySubmitted
	}

	correct := AnswerMatches(task.QuestionType, answer, task.CorrectAnswer)

	if !correct {
		sub, err := qtx.CreateSubmission(ctx, repository.CreateSubmissionParams{
			ID:     uuid.New(),
			TaskID: taskID,
			UserID: userID,
			Answer: answer,
		})
		if err != nil {
			return nil, fmt.Errorf("create submission: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return &domain.SettlementResult{SubmissionID: sub.ID}, nil
	}

	// Escrow and reward were read under the row lock, so this check is
	// authoritative. An exhausted escrow closes the task without leaving a
	// submission behind: the losing submitter keeps their one attempt.
	if task.EscrowBalance < task.RewardPerCompletion {
		if err := qtx.SetTaskStatus(ctx, taskID, domain.TaskStatusClosed); err != nil {
			return nil, fmt.Errorf("close task: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit closure: %w", err)
		}
		return nil, domain.ErrInsufficientEscrow
	}

	if _, err := qtx.DebitTaskEscrow(ctx, taskID, task.RewardPerCompletion); err != nil {
		return nil, fmt.Errorf("debit escrow: %w", err)
	}

	sub, err := qtx.CreateSubmission(ctx, repository.CreateSubmissionParams{
		ID:            uuid.New(),
		TaskID:        taskID,
		UserID:        userID,
		Answer:        answer,
		IsCorrect:     true,
		AwardedPoints: task.RewardPerCompletion,
	})
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	if _, err := qtx.CreditUserPoints(ctx, userID, task.RewardPerCompletion); err != nil {
		return nil, fmt.Errorf("credit user: %w", err)
	}

	if err := qtx.CreateLedgerEntry(ctx, repository.CreateLedgerEntryParams{
		UserID:      &userID,
		TaskID:      &taskID,
		Amount:      task.RewardPerCompletion,
		EntryType:   domain.EntryTypeCredit,
		Description: fmt.Sprintf("Task reward: %d", taskID),
	}); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	count, err := qtx.CountCorrectSubmissions(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("count correct submissions: %w", err)
	}
	if count >= int64(task.MaxAcceptances) {
		if err := qtx.SetTaskStatus(ctx, taskID, domain.TaskStatusClosed); err != nil {
			return nil, fmt.Errorf("close task: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &domain.SettlementResult{
		SubmissionID:  sub.ID,
		IsCorrect:     true,
		AwardedPoints: task.RewardPerCompletion,
	}, nil
}
