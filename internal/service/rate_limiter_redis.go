package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ventana fija: devuelve el contador actual y los milisegundos que le quedan a la ventana.
const redisRateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`

const redisRateLimitPrefix = "tailortalk:rl:"

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisRateLimiter struct {
	client  redisEvaler
	window  time.Duration
	max     int
	timeout time.Duration
}

// NewRedisRateLimiter comparte la ventana entre instancias del API.
func NewRedisRateLimiter(client *redis.Client, window time.Duration, max int) MessageRateLimiter {
	if client == nil {
		return nil
	}
	return newRedisRateLimiter(client, window, max)
}

func newRedisRateLimiter(client redisEvaler, window time.Duration, max int) *redisRateLimiter {
	if window < time.Millisecond {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisRateLimiter{
		client:  client,
		window:  window,
		max:     max,
		timeout: 500 * time.Millisecond,
	}
}

// Allow falla abierto si redis no responde: el limite no debe tumbar el chat.
func (l *redisRateLimiter) Allow(key string) RateLimitResult {
	if l == nil || l.client == nil {
		return RateLimitResult{Allowed: true}
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return RateLimitResult{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	vals, err := l.client.Eval(ctx, redisRateLimitScript, []string{redisRateLimitPrefix + normalizedKey}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(vals) != 2 {
		return RateLimitResult{Allowed: true, Remaining: l.max}
	}
	count, ttl := int(vals[0]), time.Duration(vals[1])*time.Millisecond
	if count > l.max {
		return RateLimitResult{RetryAfter: ttl}
	}
	return RateLimitResult{Allowed: true, Remaining: l.max - count}
}
