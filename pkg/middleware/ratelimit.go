package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"krib-booking/pkg/cache"
	"krib-booking/pkg/utils"

	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (cache.RateDecision, error)
}

// RateLimit applies a per-minute budget for one endpoint, keyed by the calling
// external service. Requests pass when the limiter store is unavailable.
func RateLimit(limiter Limiter, endpoint string, perMinute int, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || perMinute <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := r.RemoteAddr
			if id, ok := utils.GetExternalServiceFromContext(r.Context()); ok {
				caller = id.String()
			}

			decision, err := limiter.Allow(r.Context(), endpoint+":"+caller, perMinute, time.Minute)
			if err != nil {
				logger.Warn("Rate limiter unavailable, allowing request", zap.Error(err), zap.String("endpoint", endpoint))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				retry := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				logger.Warn("Rate limit exceeded",
					zap.String("endpoint", endpoint),
					zap.String("caller", caller),
				)
				utils.ResponseTooManyRequests(w, "Rate limit exceeded, retry later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
