package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmint-app/taskmint/internal/config"
	"github.com/taskmint-app/taskmint/internal/domain"
	"github.com/taskmint-app/taskmint/internal/repository"
)

// TaskService ingests new tasks and serves task reads. Ingestion funds
// the escrow up front with reward_per_completion * max_acceptances and
// records the reserve in the point ledger.
type TaskService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
}

func NewTaskService(db *pgxpool.Pool, queries *repository.Queries) *TaskService {
	return &TaskService{db: db, queries: queries}
}

type CreateTaskInput struct {
	CreatorID           *int64
	Question            string
	QuestionType        domain.QuestionType
	Choices             []string
	CorrectAnswer       string
	RewardPerCompletion int64
	MaxAcceptances      int
	StartsAt            *time.Time
	EndsAt              *time.Time
}

func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	question, err := ExtractQuestionText(in.Question)
	if err != nil {
		return domain.Task{}, fmt.Errorf("extract question text: %w", err)
	}
	if question == "" || len(question) > config.MaxQuestionLen {
		return domain.Task{}, domain.ErrInvalidQuestion
	}
	if !in.QuestionType.Valid() {
		return domain.Task{}, domain.ErrInvalidQuestion
	}
	if in.RewardPerCompletion < 0 || in.MaxAcceptances <= 0 {
		return domain.Task{}, domain.ErrInvalidQuestion
	}

	escrow := in.RewardPerCompletion * int64(in.MaxAcceptances)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.Task{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	task, err := qtx.CreateTask(ctx, repository.CreateTaskParams{
		CreatorID:           in.CreatorID,
		Question:            question,
		QuestionType:        in.QuestionType,
		Choices:             in.Choices,
		CorrectAnswer:       in.CorrectAnswer,
		RewardPerCompletion: in.RewardPerCompletion,
		MaxAcceptances:      in.MaxAcceptances,
		EscrowBalance:       escrow,
		StartsAt:            in.StartsAt,
		EndsAt:              in.EndsAt,
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}

	if escrow > 0 {
		if err := qtx.CreateLedgerEntry(ctx, repository.CreateLedgerEntryParams{
			UserID:      in.CreatorID,
			TaskID:      &task.ID,
			Amount:      -escrow,
			EntryType:   domain.EntryTypeDebit,
			Description: fmt.Sprintf("Escrow reserve: task %d", task.ID),
		}); err != nil {
			return domain.Task{}, fmt.Errorf("create ledger entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Task{}, fmt.Errorf("commit: %w", err)
	}

	return task, nil
}

func (s *TaskService) GetByID(ctx context.Context, id int64) (domain.Task, error) {
	task, err := s.queries.GetTaskByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (s *TaskService) ListOpen(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.queries.ListOpenTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open tasks: %w", err)
	}
	return tasks, nil
}

// ExtractQuestionText turns question content pasted from a rich-text
// editor into plain text. Plain strings pass through unchanged apart
// from whitespace normalization.
func ExtractQuestionText(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
