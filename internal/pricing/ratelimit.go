package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrDailyCapReached is returned when the reference source's daily request
// budget has been exhausted.
var ErrDailyCapReached = errors.New("reference source daily cap reached")

// Limiter throttles reference source calls: a token bucket for short-term
// rate plus a daily request cap that resets at midnight UTC.
type Limiter struct {
	bucket   *rate.Limiter
	used     atomic.Int64
	dailyCap int64

	mu      sync.Mutex
	resetAt time.Time
	nowFunc func() time.Time
}

// LimiterOption configures the Limiter.
type LimiterOption func(*Limiter)

// WithLimiterNowFunc overrides the time source for testing.
func WithLimiterNowFunc(f func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.nowFunc = f
	}
}

// NewLimiter builds a Limiter allowing perSecond sustained calls with the
// given burst, and at most dailyCap calls per UTC day.
func NewLimiter(perSecond float64, burst int, dailyCap int64, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		bucket:   rate.NewLimiter(rate.Limit(perSecond), burst),
		dailyCap: dailyCap,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.resetAt = nextMidnightUTC(l.nowFunc())
	return l
}

// Wait blocks until a call is permitted or ctx is done. It returns
// ErrDailyCapReached (wrapped with usage numbers) once the daily budget is
// spent.
func (l *Limiter) Wait(ctx context.Context) error {
	l.rollWindow()

	if l.used.Load() >= l.dailyCap {
		return fmt.Errorf("%w (%d/%d)", ErrDailyCapReached, l.used.Load(), l.dailyCap)
	}
	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	l.used.Add(1)
	return nil
}

// Used returns the number of calls consumed in the current UTC day.
func (l *Limiter) Used() int64 {
	return l.used.Load()
}

// Remaining returns how many calls are left in the current UTC day.
func (l *Limiter) Remaining() int64 {
	if rem := l.dailyCap - l.used.Load(); rem > 0 {
		return rem
	}
	return 0
}

// ResetAt returns when the daily counter next resets.
func (l *Limiter) ResetAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resetAt
}

func (l *Limiter) rollWindow() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	if !now.Before(l.resetAt) {
		l.used.Store(0)
		l.resetAt = nextMidnightUTC(now)
	}
}

func nextMidnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
