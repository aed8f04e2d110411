package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

// Limiter counts requests per key in a fixed window
type Limiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int) (bool, int, error)
}

// RateLimitMiddleware provides rate limiting functionality
type RateLimitMiddleware struct {
	limiter Limiter
	limit   int
	enabled bool
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter Limiter, limit int, enabled bool, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		enabled: enabled,
		logger:  logger,
	}
}

// Handler returns the middleware handler
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled || m.limiter == nil || m.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		switch r.URL.Path {
		case "/health", "/ready", "/metrics":
			next.ServeHTTP(w, r)
			return
		}

		key := RateLimitKey(r)
		allowed, count, err := m.limiter.CheckRateLimit(r.Context(), key, m.limit)
		if err != nil {
			// fail open
			m.logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		remaining := m.limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			httputil.ErrorFromDomain(w, domain.ErrRateLimited(time.Minute))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimitKey keys a request by user when known, otherwise by client IP
func RateLimitKey(r *http.Request) string {
	if id, ok := GetUserID(r.Context()); ok {
		return "user:" + id
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
