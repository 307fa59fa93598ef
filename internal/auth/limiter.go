package auth

import (
	"context"
	"log/slog"
	"time"

	"phone-gateway/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const loginWindow = time.Minute

// LoginLimiter throttles password attempts per client IP. The dashboard has
// a single shared password, so unthrottled guessing would be cheap.
type LoginLimiter struct {
	rdb   *redis.Client
	limit int
	log   *slog.Logger
}

func NewLoginLimiter(rdb *redis.Client, limit int, log *slog.Logger) *LoginLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &LoginLimiter{rdb: rdb, limit: limit, log: log}
}

// Allow reports whether another login attempt from ip may proceed.
// Without redis, or on redis failure, it fails open: availability of the
// dashboard wins over throttling.
func (l *LoginLimiter) Allow(ctx context.Context, ip string) bool {
	if l == nil || l.rdb == nil || l.limit <= 0 || ip == "" {
		return true
	}

	ok, err := utils.AllowFixedWindow(ctx, l.rdb, "login_attempts:"+ip, l.limit, loginWindow)
	if err != nil {
		l.log.Warn("login limiter unavailable", "error", err)
		return true
	}
	return ok
}
