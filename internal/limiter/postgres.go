package limiter

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG is a PostgreSQL-backed limiter with a sliding window and lockout.
type PG struct {
	pool Querier
	cfg  Config
	now  func() time.Time
}

// NewPG constructs a PostgreSQL-backed limiter. *pgxpool.Pool satisfies Querier.
func NewPG(q Querier, cfg Config) *PG {
	if cfg.MaxFails <= 0 {
		cfg.MaxFails = DefaultConfig().MaxFails
	}
	return &PG{pool: q, cfg: cfg, now: time.Now}
}

// HashDevice returns a stable hash of a device identifier so raw IDs and
// addresses are never stored.
func HashDevice(id string) []byte {
	h := sha256.Sum256([]byte(id))
	return h[:]
}

// Allow reports whether an exchange is currently allowed and a retry-after duration.
func (l *PG) Allow(ctx context.Context, account string, deviceHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM signin_limiter WHERE account=$1 AND device_hash=$2`
	var blockedUntil time.Time
	err := l.pool.QueryRow(ctx, q, account, deviceHash).Scan(&blockedUntil)
	switch {
	case err == nil:
		if now := l.now(); blockedUntil.After(now) {
			return false, blockedUntil.Sub(now), nil
		}
		return true, 0, nil
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	default:
		return false, 0, err
	}
}

// Success resets counters for (account, device).
func (l *PG) Success(ctx context.Context, account string, deviceHash []byte) error {
	const q = `
INSERT INTO signin_limiter (account, device_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,0,'epoch',now())
ON CONFLICT (account, device_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now()`
	_, err := l.pool.Exec(ctx, q, account, deviceHash)
	return err
}

// Failure records a failed attempt; at the threshold it blocks until now+BlockFor.
func (l *PG) Failure(ctx context.Context, account string, deviceHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO signin_limiter (account, device_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,1,'epoch',now())
ON CONFLICT (account, device_hash) DO UPDATE
SET
  fail_count = CASE WHEN EXCLUDED.updated_at - signin_limiter.updated_at > $3::interval THEN 1 ELSE signin_limiter.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.pool.QueryRow(ctx, q, account, deviceHash, l.cfg.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.cfg.MaxFails {
		return false, 0, nil
	}
	until := l.now().Add(l.cfg.BlockFor)
	const upd = `UPDATE signin_limiter SET blocked_until=$3 WHERE account=$1 AND device_hash=$2`
	if _, err := l.pool.Exec(ctx, upd, account, deviceHash, until); err != nil {
		return false, 0, err
	}
	return true, l.cfg.BlockFor, nil
}
