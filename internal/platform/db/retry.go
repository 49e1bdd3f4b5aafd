package db

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultReadAttempts = 3
	defaultBaseDelay    = 20 * time.Millisecond
	jitterFactor        = 0.3
)

// ReadRetrier は冪等な読み取りだけを対象に、一時的なストア障害を指数バックオフで再試行する。
// 書き込みには使わないこと（二重貸出の原因になる）。
type ReadRetrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func NewReadRetrier(attempts int) ReadRetrier {
	if attempts <= 0 {
		attempts = defaultReadAttempts
	}
	return ReadRetrier{MaxAttempts: attempts, BaseDelay: defaultBaseDelay}
}

func (r ReadRetrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := r.BaseDelay * time.Duration(1<<(attempt-1))
			delay += time.Duration(rand.Float64() * float64(delay) * jitterFactor) //nolint:gosec
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		// タイムアウトは再試行しない（締切はもう過ぎている）
		if ctx.Err() != nil || !IsUnavailable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
