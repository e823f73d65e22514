package config

import "time"

const (
	// Connection pool sizing
	DBMaxConns = 20
	DBMinConns = 5

	// Task read cache
	TaskCacheTTL = time.Hour

	// HTTP rate limit (requests per window per IP)
	RateLimitMax    = 100
	RateLimitWindow = time.Minute

	// Request handling
	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 10 * time.Second
	ShutdownTimeout = 15 * time.Second

	// Question length bound enforced at ingestion
	MaxQuestionLen = 4096
)
