package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ClientLimiter keeps one token bucket per client address, sized so a
// client gets at most max requests per window (e.g. 2 submissions an
// hour). The clock is a field so tests can step time explicitly.
type ClientLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func NewClientLimiter(max int, window time.Duration) *ClientLimiter {
	return &ClientLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		now:      time.Now,
	}
}

// Allow reports whether addr may make another request right now, and
// consumes a token if so.
func (cl *ClientLimiter) Allow(addr string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	lim, ok := cl.visitors[addr]
	if !ok {
		lim = rate.NewLimiter(cl.limit, cl.burst)
		cl.visitors[addr] = lim
	}
	return lim.AllowN(cl.now(), 1)
}

// Prune forgets addresses whose buckets have fully refilled; they are
// indistinguishable from addresses never seen.
func (cl *ClientLimiter) Prune() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for addr, lim := range cl.visitors {
		if lim.TokensAt(cl.now()) >= float64(cl.burst) {
			delete(cl.visitors, addr)
		}
	}
}

// RateLimit rejects requests over the per-address budget with 429.
func RateLimit(limiter *ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.String(http.StatusTooManyRequests, "Too many requests, please try again later.")
			c.Abort()
			return
		}
		c.Next()
	}
}
