package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskmint-app/taskmint/internal/domain"
)

type CreateTaskRequest struct {
	Question            string     `json:"question" validate:"required"`
	QuestionType        string     `json:"question_type" validate:"required,oneof=mcq short"`
	Choices             []string   `json:"choices" validate:"omitempty,min=2,dive,required"`
	CorrectAnswer       string     `json:"correct_answer" validate:"required"`
	RewardPerCompletion int64      `json:"reward_per_completion" validate:"min=0"`
	MaxAcceptances      int        `json:"max_acceptances" validate:"required,min=1"`
	StartsAt            *time.Time `json:"starts_at"`
	EndsAt              *time.Time `json:"ends_at"`

	// Official tasks carry no creator; only admins may set this.
	Official bool `json:"official"`
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// TaskResponse is the public view of a task. The correct answer is never
// serialized.
type TaskResponse struct {
	ID                  int64      `json:"id"`
	CreatorID           *int64     `json:"creator_id,omitempty"`
	Question            string     `json:"question"`
	QuestionType        string     `json:"question_type"`
	Choices             []string   `json:"choices,omitempty"`
	RewardPerCompletion int64      `json:"reward_per_completion"`
	MaxAcceptances      int        `json:"max_acceptances"`
	EscrowBalance       int64      `json:"escrow_balance"`
	Status              string     `json:"status"`
	StartsAt            *time.Time `json:"starts_at,omitempty"`
	EndsAt              *time.Time `json:"ends_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type SubmissionResponse struct {
	ID            uuid.UUID `json:"id"`
	TaskID        int64     `json:"task_id"`
	Answer        string    `json:"answer"`
	IsCorrect     bool      `json:"is_correct"`
	AwardedPoints int64     `json:"awarded_points"`
	ValidatedAt   time.Time `json:"validated_at"`
}

type SettlementResponse struct {
	SubmissionID  uuid.UUID `json:"submission_id"`
	IsCorrect     bool      `json:"is_correct"`
	AwardedPoints int64     `json:"awarded_points"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

func toTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:                  t.ID,
		CreatorID:           t.CreatorID,
		Question:            t.Question,
		QuestionType:        string(t.QuestionType),
		Choices:             t.Choices,
		RewardPerCompletion: t.RewardPerCompletion,
		MaxAcceptances:      t.MaxAcceptances,
		EscrowBalance:       t.EscrowBalance,
		Status:              string(t.Status),
		StartsAt:            t.StartsAt,
		EndsAt:              t.EndsAt,
		CreatedAt:           t.CreatedAt,
	}
}

func toSubmissionResponse(s domain.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:            s.ID,
		TaskID:        s.TaskID,
		Answer:        s.Answer,
		IsCorrect:     s.IsCorrect,
		AwardedPoints: s.AwardedPoints,
		ValidatedAt:   s.ValidatedAt,
	}
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		IsAdmin:   u.IsAdmin,
		Points:    u.Points,
		CreatedAt: u.CreatedAt,
	}
}
