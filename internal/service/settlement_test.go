package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskmintroot "github.com/taskmint-app/taskmint"
	"github.com/taskmint-app/taskmint/internal/domain"
	"github.com/taskmint-app/taskmint/internal/repository"
)

// The settlement engine is exercised against a real Postgres because the
// row lock is the behavior under test. Docker being unreachable skips
// these tests instead of failing them.
var (
	pgOnce  sync.Once
	pgPool  *pgxpool.Pool
	pgErr   error
	nameSeq int64
)

func settlementDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pgOnce.Do(startPostgres)
	if pgErr != nil {
		t.Skipf("postgres unavailable: %v", pgErr)
	}
	return pgPool
}

func startPostgres() {
	pool, err := dockertest.NewPool("")
	if err != nil {
		pgErr = fmt.Errorf("connect to docker: %w", err)
		return
	}
	if err := pool.Client.Ping(); err != nil {
		pgErr = fmt.Errorf("ping docker: %w", err)
		return
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=taskmint",
			"POSTGRES_PASSWORD=taskmint",
			"POSTGRES_DB=taskmint_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		pgErr = fmt.Errorf("start postgres: %w", err)
		return
	}
	// Belt and braces: the container goes away even if cleanup is skipped.
	_ = resource.Expire(600)

	databaseURL := fmt.Sprintf("postgres://taskmint:taskmint@%s/taskmint_test?sslmode=disable",
		resource.GetHostPort("5432/tcp"))

	pool.MaxWait = 2 * time.Minute
	pgErr = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pgPool = p
		return nil
	})
	if pgErr != nil {
		return
	}

	migrationsFS, err := fs.Sub(taskmintroot.MigrationsFS, "migrations")
	if err != nil {
		pgErr = err
		return
	}
	pgErr = repository.RunMigrations(databaseURL, migrationsFS)
}

func newTestUser(t *testing.T, q *repository.Queries) domain.User {
	t.Helper()
	nameSeq++
	user, err := q.CreateUser(context.Background(),
		fmt.Sprintf("user_%d_%d", time.Now().UnixNano(), nameSeq), false)
	require.NoError(t, err)
	return user
}

func newTestTask(t *testing.T, q *repository.Queries, arg repository.CreateTaskParams) domain.Task {
	t.Helper()
	if arg.Question == "" {
		arg.Question = "What is the capital of France?"
	}
	if arg.QuestionType == "" {
		arg.QuestionType = domain.QuestionTypeShort
	}
	if arg.CorrectAnswer == "" {
		arg.CorrectAnswer = "Paris"
	}
	task, err := q.CreateTask(context.Background(), arg)
	require.NoError(t, err)
	return task
}

func TestSubmitCorrectAnswer(t *testing.T) {
	db := settlementDB(t)
	q := repository.New(db)
	s := NewSettlementService(db, q)
	ctx := context.Background()

	user := newTestUser(t, q)
	task := newTestTask(t, q, repository.CreateTaskParams{
		RewardPerCompletion: 10,
		MaxAcceptances:      5,
		EscrowBalance:       50,
	})

	result, err := s.Submit(ctx, task.ID, user.ID, "paris ")
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, int64(10), result.AwardedPoints)

	got, err := q.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), got.EscrowBalance)
	assert.Equal(t, domain.TaskStatusOpen, got.Status)

	u, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), u.Points)

	var ledgerCount int64
	require.NoError(t, db.QueryRow(ctx,
		`SELECT COUNT(*) FROM point_ledger WHERE task_id = $1 AND entry_type = 'credit'`,
		task.ID).Scan(&ledgerCount))
	assert.Equal(t, int64(1), ledgerCount)
}

func TestSubmitIncorrectAnswer(t *testing.T) {
	db := settlementDB(t)
	q := repository.New(db)
	s := NewSettlementService(db, q)
	ctx := context.Background()

	user := newTestUser(t, q)
	task := newTestTask(t, q, repository.CreateTaskParams{
		RewardPerCompletion: 10,
		MaxAcceptances:      5,
		EscrowBalance:       50,
	})

	result, err := s.Submit(ctx, task.ID, user.ID, "London")
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, int64(0), result.AwardedPoints)

	// No reward effect at all
	got, err := q.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.EscrowBalance)

	u, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), u.Points)
}

func TestSubmitMCQTrimOnly(t *testing.T) {
	db := settlementDB(t)
	q := repository.New(db)
	s := NewSettlementService(db, q)
	ctx := context.Background()

	task := newTestTask(t, q, repository.CreateTaskParams{
		Question:            "Pick one",
		QuestionType:        domain.QuestionTypeMCQ,
		Choices:             []string{"A", "B", "C"},
		CorrectAnswer:       " B ",
		RewardPerCompletion: 5,
		MaxAcceptances:      1,
		EscrowBalance:       5,
	})

	user := newTestUser(t, q)
	result, err := s.Submit(ctx, task.ID, user.ID, "B")
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)

	// max_acceptances=1, so the award above closed the task
	other := newTestUser(t, q)
	_, err = s.Submit(ctx, task.ID, other.ID, "B")
	assert.ErrorIs(t, err, domain.ErrTaskClosed)
}

func TestSubmitEligibilityChecks(t *testing.T) {
	db := settlementDB(t)
	q := repository.New(db)
	s := NewSettlementService(db, q)
	ctx := context.Background()

	creator := newTestUser(t, q)
	user := newTestUser(t, q)

	t.Run("task not found", func(t *testing.T) {
		_, err := s.Submit(ctx, 999999999, user.ID, "Paris")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("task closed", func(t *testing.T) {
		task := newTestTask(t, q, repository.CreateTaskParams{
			RewardPerCompletion: 10, MaxAcceptances: 1, EscrowBalance: 10,
		})
		require.NoError(t, q.SetTaskStatus(ctx, task.ID, domain.TaskStatusClosed))
		_, err := s.Submit(ctx, task.ID, user.ID, "Paris")
		assert.ErrorIs(t, err, domain.ErrTaskClosed)
	})

	t.Run("not started", func(t *testing.T) {
		starts := time.Now().Add(time.Hour)
		task := newTestTask(t, q, repository.CreateTaskParams{
			RewardPerCompletion: 10, MaxAcceptances: 1, EscrowBalance: 10,
			StartsAt: &starts,
		})
		_, err := s.Submit(ctx, task.ID, user.ID, "Paris")
		assert.ErrorIs(t, err, domain.ErrTaskNotStarted)
	})

	t.Run("expired", func(t *testing.T) {
		ends := time.Now().Add(-time.Hour)
		task := newTestTask(t, q, repository.CreateTaskParams{
			RewardPerCompletion: 10, MaxAcceptances: 1, EscrowBalance: 10,
			EndsAt: &ends,
		})
		_, err := s.Submit(ctx, task.ID, user.ID, "Paris")
		assert.ErrorIs(t, err, domain.ErrTaskExpired)
	})

	t.Run("self submission", func(t *testing.T) {
		task := newTestTask(t, q, repository.CreateTaskParams{
			CreatorID:           &creator.ID,
			RewardPerCompletion: 10, MaxAcceptances: 1, EscrowBalance: 10,
		})
		_, err := s.Submit(ctx, task.ID, creator.ID, "Paris")
		assert.ErrorIs(t, err, domain.ErrSelfSubmission)

		var count int64
		require.NoError(t, db.QueryRow(ctx,
			`SELECT COUNT(*) FROM submissions WHERE task_id = $1`, task.ID).Scan(&count))
		assert.Equal(t, int64(0), count)
	})

	t.Run("already submitted is terminal", func(t *testing.T) {
		task := newTestTask(t, q, repository.CreateTaskParams{
			RewardPerCompletion: 10, MaxAcceptances: 5, EscrowBalance: 50,
		})
		_, err := s.Submit(ctx, task.ID, user.ID, "wrong")
		require.NoError(t, err)

		// Resubmitting always yields AlreadySubmitted, never a second row.
		for i := 0; i < 3; i++ {
			_, err = s.Submit(ctx, task.ID, user.ID, "Paris")
			assert.ErrorIs(t, err, domain.ErrAlreadySubmitted)
		}

		var count int64
		require.NoError(t, db.QueryRow(ctx,
			`SELECT COUNT(*) FROM submissions WHERE task_id = $1 AND user_id = $2`,
			task.ID, user.ID).Scan(&count))
		assert.Equal(t, int64(1), count)
	})
}

// Task funded with 25 at reward 10 pays exactly two full rewards. The
// third correct answer finds 5 in escrow, gets InsufficientEscrow with no
// submission row, and permanently closes the task.
func TestSubmitEscrowExhaustion(t *testing.T) {
	db := settlementDB(t)
	q := repository.New(db)
	s := NewSettlementService(db, q)
	ctx := context.Background()

	task := newTestTask(t, q, repository.CreateTaskParams{
		RewardPerCompletion: 10,
		MaxAcceptances:      5,
		EscrowBalance:       25,
	})

	wantEscrow := []int64{15, 5}
	for _, want := range wantEscrow {
		user := newTestUser(t, q)
		result, err := s.Submit(ctx, task.ID, user.ID, "Paris")
		require.NoError(t, err)
		assert.Equal(t, int64(10), result.AwardedPoints)

		got, err := q.GetTaskByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.EscrowBalance)
	}

	loser := newTestUser(t, q)
	_, err := s.Submit(ctx, task.ID, loser.ID, "Paris")
	assert.ErrorIs(t, err, domain.ErrInsufficientEscrow)

	got, err := q.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusClosed, got.Status)
	assert.Equal(t, int64(5), got.EscrowBalance)

	// The losing submitter gets no record, not even a rejected one.
	var count int64
	require.NoError(t, db.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE task_id = $1 AND user_id = $2`,
		task.ID, loser.ID).Scan(&count))
	assert.Equal(t, int64(0), count)

	// Closure is one-way.
	after := newTestUser(t, q)
	_, err = s.Submit(ctx, task.ID, after.ID, "Paris")
	assert.ErrorIs(t, err, domain.ErrTaskClosed)
}

func TestSubmitClosesAtMaxAcceptances(t *testing.T) {
	db := settlementDB(t)
	q := repository.New(db)
	s := NewSettlementService(db, q)
	ctx := context.Background()

	task := newTestTask(t, q, repository.CreateTaskParams{
		RewardPerCompletion: 10,
		MaxAcceptances:      2,
		EscrowBalance:       100,
	})

	for i := 0; i < 2; i++ {
		user := newTestUser(t, q)
		_, err := s.Submit(ctx, task.ID, user.ID, "Paris")
		require.NoError(t, err)
	}

	got, err := q.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusClosed, got.Status)

	user := newTestUser(t, q)
	_, err = s.Submit(ctx, task.ID, user.ID, "Paris")
	assert.ErrorIs(t, err, domain.ErrTaskClosed)
}

// N concurrent correct submissions against escrow covering exactly K
// rewards: exactly K awards, everyone else rejected, escrow never
// negative.
func TestSubmitConcurrentEscrowRace(t *testing.T) {
	db := settlementDB(t)
	q := repository.New(db)
	s := NewSettlementService(db, q)
	ctx := context.Background()

	const (
		n      = 8
		k      = 3
		reward = 10
	)

	task := newTestTask(t, q, repository.CreateTaskParams{
		RewardPerCompletion: reward,
		MaxAcceptances:      100,
		EscrowBalance:       k * reward,
	})

	users := make([]domain.User, n)
	for i := range users {
		users[i] = newTestUser(t, q)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Submit(ctx, task.ID, users[i].ID, "Paris")
		}(i)
	}
	wg.Wait()

	var awards, rejections int
	for _, err := range errs {
		switch {
		case err == nil:
			awards++
		case errors.Is(err, domain.ErrInsufficientEscrow), errors.Is(err, domain.ErrTaskClosed):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, k, awards)
	assert.Equal(t, n-k, rejections)

	got, err := q.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.EscrowBalance)
	assert.Equal(t, domain.TaskStatusClosed, got.Status)

	var correct int64
	require.NoError(t, db.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE task_id = $1 AND is_correct`,
		task.ID).Scan(&correct))
	assert.Equal(t, int64(k), correct)
}
