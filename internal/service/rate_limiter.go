package service

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitResult es la decision del limiter para una accion.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// MessageRateLimiter limita las acciones por clave (IP y conversacion).
type MessageRateLimiter interface {
	Allow(key string) RateLimitResult
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type memoryRateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	every     rate.Limit
	burst     int
	window    time.Duration
	now       func() time.Time
	lastPrune time.Time
}

// NewMemoryRateLimiter permite max acciones por ventana con rafaga de max.
func NewMemoryRateLimiter(window time.Duration, max int) MessageRateLimiter {
	return newMemoryRateLimiter(window, max, time.Now)
}

func newMemoryRateLimiter(window time.Duration, max int, now func() time.Time) *memoryRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &memoryRateLimiter{
		entries:   make(map[string]*limiterEntry),
		every:     rate.Every(window / time.Duration(max)),
		burst:     max,
		window:    window,
		now:       now,
		lastPrune: now(),
	}
}

func (l *memoryRateLimiter) Allow(key string) RateLimitResult {
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return RateLimitResult{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.pruneLocked(now)

	entry, ok := l.entries[normalizedKey]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.entries[normalizedKey] = entry
	}
	entry.lastSeen = now

	r := entry.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return RateLimitResult{RetryAfter: delay}
	}
	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{Allowed: true, Remaining: remaining}
}

// pruneLocked descarta claves sin uso durante una ventana completa: su bucket ya
// se relleno, asi que recrearlo da el mismo resultado.
func (l *memoryRateLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	l.lastPrune = now
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) >= l.window {
			delete(l.entries, key)
		}
	}
}

func (l *memoryRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
