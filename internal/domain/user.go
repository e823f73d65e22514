package domain

import "time"

type User struct {
	ID        int64
	Username  string
	IsAdmin   bool
	Points    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
