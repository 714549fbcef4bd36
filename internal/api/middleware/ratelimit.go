package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// ipLimiters hands out one token bucket per client IP and forgets idle ones.
type ipLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(l.visitors, k)
		}
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// LoginRateLimit throttles credential attempts per client IP: perSecond
// tokens refill a bucket of size burst.
func LoginRateLimit(perSecond float64, burst int) echo.MiddlewareFunc {
	limiters := &ipLimiters{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiters.allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
			}
			return next(c)
		}
	}
}
