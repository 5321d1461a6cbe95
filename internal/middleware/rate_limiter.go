package middleware

import (
	"net/http"
	"sync"
	"time"

	"garittea/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter ─────────────────────────────────────────────────────

type ventana struct {
	count int
	fin   time.Time
}

// Limiter counts requests per client IP in fixed windows.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*ventana
	purgada time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		entries: make(map[string]*ventana),
	}
}

// Allow records one attempt for key and reports whether it is within the limit,
// together with the end of the current window.
func (l *Limiter) Allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.purge(now)

	v, ok := l.entries[key]
	if !ok || now.After(v.fin) {
		v = &ventana{fin: now.Add(l.window)}
		l.entries[key] = v
	}
	v.count++
	return v.count <= l.limit, v.fin
}

// purge drops expired windows at most once per window; caller holds mu.
func (l *Limiter) purge(now time.Time) {
	if now.Sub(l.purgada) < l.window {
		return
	}
	l.purgada = now
	purged := 0
	for k, v := range l.entries {
		if now.After(v.fin) {
			delete(l.entries, k)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().Int("purged", purged).Int("remaining", len(l.entries)).Msg("rate limiter purged")
	}
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, fin := l.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", fin.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 10 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return NewLimiter(10, time.Minute).Middleware("Demasiados intentos de login. Intente en 1 minuto.")
}

// RateLimiter is the general per-IP limiter for the whole API.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return NewLimiter(limit, window).Middleware("Demasiadas solicitudes. Intente nuevamente en un momento.")
}
