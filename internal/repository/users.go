package repository

import (
	"context"

	"github.com/taskmint-app/taskmint/internal/domain"
)

const userColumns = `id, username, is_admin, points, created_at, updated_at`

func (q *Queries) CreateUser(ctx context.Context, username string, isAdmin bool) (domain.User, error) {
	var u domain.User
	err := q.db.QueryRow(ctx, `
		INSERT INTO users (username, is_admin) VALUES ($1, $2)
		RETURNING `+userColumns,
		username, isAdmin,
	).Scan(&u.ID, &u.Username, &u.IsAdmin, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.IsAdmin, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreditUserPoints adds amount to the user's balance and returns the new
// total.
func (q *Queries) CreditUserPoints(ctx context.Context, id int64, amount int64) (int64, error) {
	var points int64
	err := q.db.QueryRow(ctx, `
		UPDATE users SET points = points + $2, updated_at = now()
		WHERE id = $1
		RETURNING points`,
		id, amount,
	).Scan(&points)
	return points, err
}
