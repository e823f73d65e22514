package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmint-app/taskmint/internal/domain"
	"github.com/taskmint-app/taskmint/internal/repository"
)

type UserService struct {
	db      *pgxpool.Pool
	queries *repository.Queries
}

func NewUserService(db *pgxpool.Pool, queries *repository.Queries) *UserService {
	return &UserService{db: db, queries: queries}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (domain.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) ListSubmissions(ctx context.Context, userID int64) ([]domain.Submission, error) {
	subs, err := s.queries.ListSubmissionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}
