package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	// maxBuckets bounds how many identities are tracked at once; the least
	// recently seen bucket is dropped first.
	maxBuckets = 10_000
	bucketTTL  = 10 * time.Minute
)

// keyFunc selects the identity a bucket belongs to, e.g. "user:u1" or
// "ip:203.0.113.7".
type keyFunc func(*gin.Context) string

// KeyByUserOrIP prefers the resolved user id and falls back to the client IP.
// Callers riding on the default user id are keyed by IP so they do not share
// one global bucket.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(CtxKeyUserID); ok && !isFallbackUser(c) {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// RateLimiter is a per-identity token bucket. Routes that call the language
// model can be priced above one token with Cost, so a client spending its
// budget on coaching turns runs dry before one browsing personas does.
// Replayed turns (see IdempotencyValidator) are free.
//
// The limiter is process-local and safe for concurrent use.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	keyFn   keyFunc
	costs   map[string]int
	buckets *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst (values <= 0 become 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		costs:   make(map[string]int),
		buckets: expirable.NewLRU[string, *rate.Limiter](maxBuckets, nil, bucketTTL),
	}
}

// Cost prices requests to method+route (the Gin route template) at n tokens.
// n is clamped to [1, burst] so a priced route can always succeed on a full
// bucket. Configure before serving.
func (rl *RateLimiter) Cost(method, route string, n int) *RateLimiter {
	n = min(max(n, 1), rl.burst)
	rl.costs[method+" "+route] = n
	return rl
}

func (rl *RateLimiter) costOf(c *gin.Context) int {
	if n, ok := rl.costs[c.Request.Method+" "+c.FullPath()]; ok {
		return n
	}
	return 1
}

// bucket returns the limiter for key, creating it on first sight. Every
// lookup refreshes the idle TTL.
func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	lim, ok := rl.buckets.Get(key)
	if !ok {
		lim = rate.NewLimiter(rl.rps, rl.burst)
	}
	rl.buckets.Add(key, lim)
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay of a recorded turn.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limits. A denied request gets 429 rate_limited with
// Retry-After set to the seconds until enough tokens have refilled.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := time.Now()
		cost := rl.costOf(c)
		lim := rl.bucket(rl.keyFn(c))
		if lim.AllowN(now, cost) {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(retryAfter(lim, now, cost)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

// retryAfter is the whole number of seconds (at least 1) until cost tokens
// are available again.
func retryAfter(lim *rate.Limiter, now time.Time, cost int) int {
	missing := float64(cost) - lim.TokensAt(now)
	if lim.Limit() <= 0 || missing <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(missing/float64(lim.Limit()))))
}
