package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"phishsim/internal/platform/metrics"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/platform/httputil"
	"phishsim/pkg/platform/middleware/metadata"
)

// IPRateLimiter keeps one token bucket per client IP. Buckets idle longer than
// ttl are evicted lazily on access.
type IPRateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	clients map[string]*visitor
	now     func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(perSecond float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		ttl:     10 * time.Minute,
		clients: make(map[string]*visitor),
		now:     time.Now,
	}
}

// Allow reports whether a request from ip may proceed.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, v := range l.clients {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.clients, key)
		}
	}
	v, ok := l.clients[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(l *IPRateLimiter, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := metadata.ClientIPFromRequest(r)
			if !l.Allow(ip) {
				ctx := r.Context()
				logger.WarnContext(ctx, "ingress rate limited",
					"request_id", GetRequestID(ctx),
					"path", r.URL.Path,
				)
				m.IncrementIngressRateLimited()
				w.Header().Set("Retry-After", "1")
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests").WithReason("RATE_LIMITED"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
