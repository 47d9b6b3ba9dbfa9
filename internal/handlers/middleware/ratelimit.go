package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/handlers/render"
)

type RateLimiterConfig struct {
	// Requests per second allowed for single client
	Rate rate.Limit

	// Burst size for single client
	Burst int

	// Idle client limiters are removed after twice this interval
	CleanupInterval time.Duration
}

// Signup and signin limit: 10 requests per minute per client address
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:            rate.Limit(10.0 / 60.0),
		Burst:           10,
		CleanupInterval: 5 * time.Minute,
	}
}

type rateLimitRecorder interface {
	RecordRateLimited(route string)
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter limits requests per client address
type RateLimiter struct {
	config  RateLimiterConfig
	metrics rateLimitRecorder
	logger  logger

	mu       sync.RWMutex
	limiters map[string]*clientLimiter

	stopCh chan struct{}
}

// NewRateLimiter creates limiter and starts removing idle clients in background
// Call Stop to release the goroutine
func NewRateLimiter(config RateLimiterConfig, metrics rateLimitRecorder, l logger) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		metrics:  metrics,
		logger:   l,
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware limits requests to the route
// Every route wrapped has its own budget per client
func (rl *RateLimiter) Middleware(route string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientAddr(r)
			limiter := rl.getOrCreate(route + " " + client)

			if !limiter.Allow() {
				rl.metrics.RecordRateLimited(route)
				rl.logger.Info("rate limit exceeded", "route", route, "client", client)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter(rl.config.Rate)))
				render.Error(w, apperrors.ErrTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Count of clients tracked
func (rl *RateLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) getOrCreate(key string) *rate.Limiter {
	rl.mu.RLock()
	cl, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		rl.mu.Lock()
		cl.lastAccess = time.Now()
		rl.mu.Unlock()
		return cl.limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Could be created while lock was released
	if cl, exists := rl.limiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.config.Rate, rl.config.Burst)
	rl.limiters[key] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
}

// Seconds until one token is refilled
func retryAfter(r rate.Limit) int {
	return max(int(math.Ceil(1.0/float64(r))), 1)
}

// RemoteAddr is already rewritten by RealIP middleware if server is behind proxy
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
