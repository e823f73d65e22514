package domain

import "time"

type QuestionType string

const (
	QuestionTypeMCQ   QuestionType = "mcq"
	QuestionTypeShort QuestionType = "short"
)

func (qt QuestionType) Valid() bool {
	return qt == QuestionTypeMCQ || qt == QuestionTypeShort
}

type TaskStatus string

const (
	TaskStatusOpen   TaskStatus = "open"
	TaskStatusClosed TaskStatus = "closed"
)

// Task is a rewarded question. Tasks with a nil CreatorID are official,
// i.e. authored by the platform itself.
type Task struct {
	ID                  int64
	CreatorID           *int64
	Question            string
	QuestionType        QuestionType
	Choices             []string
	CorrectAnswer       string
	RewardPerCompletion int64
	MaxAcceptances      int
	EscrowBalance       int64
	Status              TaskStatus
	StartsAt            *time.Time
	EndsAt              *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (t *Task) IsOfficial() bool {
	return t.CreatorID == nil
}

// WithinWindow reports whether now falls inside the task's submission
// window. Missing bounds leave the window open-ended on that side.
func (t *Task) WithinWindow(now time.Time) (started, ended bool) {
	started = t.StartsAt == nil || !now.Before(*t.StartsAt)
	ended = t.EndsAt != nil && now.After(*t.EndsAt)
	return started, ended
}
