package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/recuerdos-backend/pkg/clientip"
)

const (
	// RateLimitWindow is the fixed window for the shared limiter
	RateLimitWindow = 60 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 120
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
)

// RedisRateLimit counts requests per IP in Redis so every instance shares
// the same budget. Redis errors let the request through.
func RedisRateLimit(rdb *redis.Client, max int, window time.Duration) func(http.Handler) http.Handler {
	if max <= 0 {
		max = RateLimitMaxRequests
	}
	if window <= 0 {
		window = RateLimitWindow
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := RateLimitKeyPrefix + clientip.RealClientIP(r)

			// SET NX EX creates the window with its TTL; both commands run in
			// one MULTI so a counter never exists without an expiry.
			var incr *redis.IntCmd
			_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.SetNX(ctx, key, 0, window)
				incr = pipe.Incr(ctx, key)
				return nil
			})
			if err != nil {
				log.Printf("⚠️  Rate limiter unavailable, allowing request: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			count := int(incr.Val())
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			remaining := max - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if count > max {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(fmt.Sprintf(`{"success":false,"error":"rate_limited","message":"Demasiadas peticiones. Intenta más tarde.","retry_after":%d}`, int(window.Seconds()))))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
