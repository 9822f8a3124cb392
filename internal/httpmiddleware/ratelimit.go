package httpmiddleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scholarhub/internal/store"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SimpleTokenBucket is an in-memory rate limiter. Use RedisWindow when
// several instances share one budget.
type SimpleTokenBucket struct {
	capacity float64
	perSec   float64
	now      func() time.Time
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewSimpleTokenBucket creates limiter with capacity tokens and rate per minute.
func NewSimpleTokenBucket(capacity, perMinute int) *SimpleTokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &SimpleTokenBucket{
		capacity: float64(capacity),
		perSec:   float64(perMinute) / 60,
		now:      time.Now,
		state:    make(map[string]*bucket),
	}
}

// Allow consumes one token for key. It never fails.
func (l *SimpleTokenBucket) Allow(_ context.Context, key string) (bool, error) {
	return l.allow(key), nil
}

// allow refills continuously, so partial tokens carry over between calls.
func (l *SimpleTokenBucket) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.state[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.state[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.perSec)
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RedisWindow is a fixed one-minute window counter kept in redis.
type RedisWindow struct {
	redis  *store.Redis
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisWindow allows perMinute requests per key per minute.
func NewRedisWindow(r *store.Redis, perMinute int) *RedisWindow {
	return &RedisWindow{
		redis:  r,
		limit:  int64(perMinute),
		window: time.Minute,
		now:    time.Now,
	}
}

// Allow increments the counter for the current window. A missing client
// or a redis error allows the request and reports the error.
func (w *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	if w.redis == nil || w.redis.Client == nil {
		return true, nil
	}
	slot := w.now().Unix() / int64(w.window/time.Second)
	k := fmt.Sprintf("rate_limit:%s:%d", key, slot)

	pipe := w.redis.Client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, w.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit window: %w", err)
	}
	return incr.Val() <= w.limit, nil
}

// RateLimit returns a gin handler enforcing per-IP limits through l.
func RateLimit(l Limiter, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ok, err := l.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Warn("rate limiter degraded", zap.String("ip", ip), zap.Error(err))
		}
		if !ok {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}
