package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalRateLimiter keeps one token bucket per key in process memory. Limits
// hold per instance only, so it is the fallback when Redis is unreachable.
type LocalRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	now     func() time.Time
}

func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{
		buckets: make(map[string]*rate.Limiter),
		now:     time.Now,
	}
}

func (l *LocalRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error) {
	if limit <= 0 || window <= 0 {
		return RateDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}

	bucket := l.bucket(key, limit, window)
	now := l.now()

	reservation := bucket.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return RateDecision{Allowed: false, Limit: limit, RetryAfter: delay}, nil
	}

	return RateDecision{
		Allowed:   true,
		Limit:     limit,
		Remaining: max(int(bucket.TokensAt(now)), 0),
	}, nil
}

func (l *LocalRateLimiter) bucket(key string, limit int, window time.Duration) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || b.Burst() != limit {
		b = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
		l.buckets[key] = b
	}
	return b
}
