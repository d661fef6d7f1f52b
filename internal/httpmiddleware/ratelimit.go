package httpmiddleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether a client key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucket is an in-memory per-key limiter. Use RedisLimiter when more
// than one API instance runs.
type TokenBucket struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu      sync.Mutex
	state   map[string]*bucket
	lastGC  time.Time
	nowFunc func() time.Time
}

type bucket struct {
	limiter *rate.Limiter
	last    time.Time
}

// NewTokenBucket creates a limiter refilling perMinute tokens per minute
// with room for capacity requests in a burst.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if perMinute <= 0 {
		perMinute = 60
	}
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   capacity,
		idleTTL: 10 * time.Minute,
		state:   make(map[string]*bucket),
		nowFunc: time.Now,
	}
}

func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	l.evictIdle(now)

	b, ok := l.state[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.state[key] = b
	}
	b.last = now
	return b.limiter.AllowN(now, 1), nil
}

// evictIdle drops buckets unused for idleTTL. Callers hold mu.
func (l *TokenBucket) evictIdle(now time.Time) {
	if now.Sub(l.lastGC) < l.idleTTL {
		return
	}
	for k, b := range l.state {
		if now.Sub(b.last) >= l.idleTTL {
			delete(l.state, k)
		}
	}
	l.lastGC = now
}

// RedisLimiter is a fixed one-minute window counter shared by all instances.
type RedisLimiter struct {
	client    *redis.Client
	perMinute int
	prefix    string
	nowFunc   func() time.Time
}

func NewRedisLimiter(client *redis.Client, perMinute int) *RedisLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RedisLimiter{client: client, perMinute: perMinute, prefix: "classroll:ratelimit:", nowFunc: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := l.nowFunc().Unix() / 60
	k := fmt.Sprintf("%s%s:%d", l.prefix, key, window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.perMinute), nil
}

// RateLimit enforces l per client IP. Limiter errors let the request
// through.
func RateLimit(l Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ok, err := l.Allow(c.Request.Context(), ip)
		if err != nil {
			logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
			c.Next()
			return
		}
		if !ok {
			logger.Warn("rate limit exceeded", slog.String("client_ip", ip))
			c.Header("Retry-After", strconv.Itoa(60))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "too many requests"})
			return
		}
		c.Next()
	}
}
