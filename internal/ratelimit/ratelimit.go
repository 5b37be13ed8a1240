package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Limiter is a fixed-window request limiter backed by Redis, keyed by client
// IP. When Redis is unreachable the limiter fails open: dropping requests
// because the cache is down would be worse than not limiting.
type Limiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

// New creates a Limiter allowing max requests per window per client IP.
func New(rdb *redis.Client, max int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, max: max, window: window}
}

// Middleware enforces the limit. Relies on chi's RealIP middleware having
// normalized r.RemoteAddr already.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := "ratelimit:" + clientIP(r)

		count, err := l.rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warn().Err(err).Msg("Rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			l.rdb.Expire(ctx, key, l.window)
		}

		if count > int64(l.max) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"message": "Too many requests"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port when RemoteAddr still carries one (chi's RealIP
// replaces it with a bare IP only when a forwarding header is present).
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
