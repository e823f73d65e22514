package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission records one settled answer. At most one exists per
// (task, user) pair and it never changes after settlement.
type Submission struct {
	ID            uuid.UUID
	TaskID        int64
	UserID        int64
	Answer        string
	IsCorrect     bool
	AwardedPoints int64
	ValidatedAt   time.Time
}

// SettlementResult is what the caller of a submit gets back on the
// success path (correct or incorrect answer alike).
type SettlementResult struct {
	SubmissionID  uuid.UUID
	IsCorrect     bool
	AwardedPoints int64
}
