// Package limiter throttles token exchanges per (account, device).
package limiter

import (
	"context"
	"time"
)

// Limiter controls sign-in attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether a token exchange is currently allowed and, if not, for how long it is blocked.
	Allow(ctx context.Context, account string, deviceHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful exchange.
	Success(ctx context.Context, account string, deviceHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, account string, deviceHash []byte) (bool, time.Duration, error)
}

// Config holds the lockout policy.
type Config struct {
	Window   time.Duration // failures older than this restart the count
	MaxFails int
	BlockFor time.Duration
}

// DefaultConfig is five failures in fifteen minutes, then a fifteen minute block.
func DefaultConfig() Config {
	return Config{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}
}
