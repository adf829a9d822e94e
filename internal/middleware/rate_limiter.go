package middleware

import (
	"net/http"
	"sync"
	"time"

	"itineramio/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const purgeInterval = 5 * time.Minute

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

// rateLimiter owns one IP table so that the public invoice limiter and the
// general API limiter do not share budgets.
type rateLimiter struct {
	name    string
	limit   int
	window  time.Duration
	mu      sync.Mutex
	entries map[string]*rateEntry
}

// RateLimiter returns a per-IP window rate limiter. name only labels log lines.
func RateLimiter(name string, limit int, window time.Duration) gin.HandlerFunc {
	rl := &rateLimiter{name: name, limit: limit, window: window, entries: make(map[string]*rateEntry)}
	go rl.purgeLoop()
	return rl.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	ip := c.ClientIP()

	rl.mu.Lock()
	entry, exists := rl.entries[ip]
	if !exists {
		entry = &rateEntry{}
		rl.entries[ip] = entry
	}
	rl.mu.Unlock()

	entry.mu.Lock()
	now := time.Now()
	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(rl.window)
	}
	entry.count++
	over := entry.count > rl.limit
	retryAt := entry.windowEnd
	entry.mu.Unlock()

	if over {
		c.Header("Retry-After", retryAt.UTC().Format(http.TimeFormat))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.WithCode(apierror.CodeRateLimited, "Demasiadas solicitudes. Intente nuevamente en un momento."))
		return
	}
	c.Next()
}

// purgeLoop removes expired entries so IPs that never return do not accumulate.
func (rl *rateLimiter) purgeLoop() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for range ticker.C {
		rl.purge(time.Now())
	}
}

func (rl *rateLimiter) purge(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	purged := 0
	for ip, entry := range rl.entries {
		entry.mu.Lock()
		if now.After(entry.windowEnd) {
			delete(rl.entries, ip)
			purged++
		}
		entry.mu.Unlock()
	}
	if purged > 0 {
		log.Debug().
			Str("limiter", rl.name).
			Int("purged", purged).
			Int("remaining", len(rl.entries)).
			Msg("rate limiter entries purged")
	}
	return purged
}
