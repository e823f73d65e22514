package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	taskmintroot "github.com/taskmint-app/taskmint"
	"github.com/taskmint-app/taskmint/internal/config"
	"github.com/taskmint-app/taskmint/internal/handler"
	"github.com/taskmint-app/taskmint/internal/middleware"
	"github.com/taskmint-app/taskmint/internal/repository"
	"github.com/taskmint-app/taskmint/internal/service"
	"github.com/taskmint-app/taskmint/internal/telegram"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(taskmintroot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis. The task cache is best-effort, so a missing Redis
	// downgrades reads instead of stopping the service.
	rdb, err := repository.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("redis unavailable, task cache disabled", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// Initialize queries and services
	queries := repository.New(pool)
	taskService := service.NewTaskService(pool, queries)
	settlementService := service.NewSettlementService(pool, queries)
	userService := service.NewUserService(pool, queries)

	// Optional ops notifications
	var notifier *telegram.Notifier
	if cfg.OpsBotToken != "" {
		b, err := bot.New(cfg.OpsBotToken)
		if err != nil {
			slog.Error("failed to create ops bot", "error", err)
			os.Exit(1)
		}
		notifier = telegram.NewNotifier(b, cfg.OpsChatID)
	}

	h := handler.New(handler.Deps{
		Cfg:        cfg,
		Tasks:      taskService,
		Settlement: settlementService,
		Users:      userService,
		Redis:      rdb,
		Notifier:   notifier,
		DB:         pool,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	app.Use(recover.New())
	app.Use(middleware.Logging())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        config.RateLimitMax,
		Expiration: config.RateLimitWindow,
	}))

	h.RegisterRoutes(app)

	// Serve until the shutdown signal arrives
	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		if err := app.ShutdownWithTimeout(config.ShutdownTimeout); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting api", "port", cfg.Port)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}

	slog.Info("stopped gracefully")
}
