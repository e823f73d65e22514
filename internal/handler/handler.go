package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"

	"github.com/taskmint-app/taskmint/internal/config"
	"github.com/taskmint-app/taskmint/internal/domain"
	"github.com/taskmint-app/taskmint/internal/service"
	"github.com/taskmint-app/taskmint/internal/telegram"
)

var validate = validator.New()

// TaskService is the task ingestion and read surface the handlers use.
type TaskService interface {
	CreateTask(ctx context.Context, in service.CreateTaskInput) (domain.Task, error)
	GetByID(ctx context.Context, id int64) (domain.Task, error)
	ListOpen(ctx context.Context) ([]domain.Task, error)
}

// SettlementService settles a submission against a task.
type SettlementService interface {
	Submit(ctx context.Context, taskID, userID int64, answer string) (*domain.SettlementResult, error)
}

type UserService interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)
	ListSubmissions(ctx context.Context, userID int64) ([]domain.Submission, error)
}

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies needed by the HTTP handlers.
type Handler struct {
	cfg        *config.Config
	tasks      TaskService
	settlement SettlementService
	users      UserService
	rdb        *redis.Client
	notifier   *telegram.Notifier
	db         Pinger
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg        *config.Config
	Tasks      TaskService
	Settlement SettlementService
	Users      UserService
	Redis      *redis.Client
	Notifier   *telegram.Notifier
	DB         Pinger
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:        deps.Cfg,
		tasks:      deps.Tasks,
		settlement: deps.Settlement,
		users:      deps.Users,
		rdb:        deps.Redis,
		notifier:   deps.Notifier,
		db:         deps.DB,
	}
}
