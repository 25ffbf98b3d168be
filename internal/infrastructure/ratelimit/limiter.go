// Package ratelimit limits how often a client may hit the partner-backed
// endpoints. Every lookup or simulation costs a partner round trip, so the
// limit protects the partner quota as much as this service.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by New
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Decision is the outcome of a single Allow call
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
}

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Config selects and sizes a limiter
type Config struct {
	Backend  string
	Requests int
	Window   time.Duration
}

// New builds the limiter named by cfg.Backend. redisOpts is only used by the
// redis backend.
func New(cfg Config, redisOpts RedisOptions) (Limiter, error) {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("ratelimit: requests and window must be positive")
	}
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryLimiter(cfg.Requests, cfg.Window), nil
	case BackendRedis:
		return NewRedisLimiter(redisOpts, cfg.Requests, cfg.Window)
	default:
		return nil, fmt.Errorf("ratelimit: unknown backend %q", cfg.Backend)
	}
}
