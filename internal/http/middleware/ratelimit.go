package middleware

import (
	"net/http"
	"sync"
	"time"
)

const (
	evictEvery = 5 * time.Minute
	staleAfter = 10 * time.Minute
)

// RateLimit returns a middleware enforcing a per-client token bucket of
// rate tokens/sec with the given burst. Clients are keyed by IP, so chi's
// RealIP must run earlier in the chain.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	l := &limiter{rate: rate, burst: float64(burst), clients: map[string]*tokenBucket{}}
	go l.evictLoop()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientKey(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

type limiter struct {
	mu      sync.Mutex
	rate    float64
	burst   float64
	clients map[string]*tokenBucket
}

func (l *limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.clients[key]
	if !ok {
		b = &tokenBucket{tokens: l.burst, seen: now}
		l.clients[key] = b
	}
	b.tokens = min(l.burst, b.tokens+now.Sub(b.seen).Seconds()*l.rate)
	b.seen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictLoop drops buckets idle long enough to have fully refilled, so the
// map does not accumulate one entry per client ever seen.
func (l *limiter) evictLoop() {
	for range time.Tick(evictEvery) {
		cutoff := time.Now().Add(-staleAfter)
		l.mu.Lock()
		for key, b := range l.clients {
			if b.seen.Before(cutoff) {
				delete(l.clients, key)
			}
		}
		l.mu.Unlock()
	}
}
