package domain

import "errors"

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskClosed         = errors.New("task is closed")
	ErrTaskNotStarted     = errors.New("task has not started yet")
	ErrTaskExpired        = errors.New("task has expired")
	ErrSelfSubmission     = errors.New("creator cannot submit to own task")
	ErrAlreadySubmitted   = errors.New("user already submitted to this task")
	ErrInsufficientEscrow = errors.New("task escrow cannot cover the reward")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidQuestion    = errors.New("invalid question content")
)
