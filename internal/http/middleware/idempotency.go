package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's key for a coaching turn.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"

	defaultMaxKeyLen     = 200
	defaultLookupTimeout = 500 * time.Millisecond
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key accepted by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether a turn was already recorded under this request's
// key, i.e. the handler should answer from the stored turn.
func IsReplay(c *gin.Context) bool { return c.GetBool(ctxKeyIdemReplay) }

// IdempotencyOptions configures IdempotencyValidator. Zero values pick the
// defaults.
type IdempotencyOptions struct {
	MaxLen        int            // 200
	Pattern       *regexp.Regexp // ^[A-Za-z0-9._~\-:]+$
	LookupTimeout time.Duration  // 500ms
}

// IdempotencyLookup reports whether a live turn key exists for
// (userID, sessionID, key).
type IdempotencyLookup func(ctx context.Context, userID, sessionID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator checks the Idempotency-Key header on session routes.
// A missing header passes through. A malformed one is rejected with 400
// bad_idempotency_key. When lookup finds the key the request is flagged as a
// replay and exempted from rate limiting. Lookup failures are logged and the
// request proceeds as a fresh turn.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultMaxKeyLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		sessionID := c.Param("id")
		if lookup == nil || sessionID == "" {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		exists, err := lookup(ctx, UserIDFrom(c), sessionID, key, time.Now().UTC())
		cancel()
		switch {
		case err != nil:
			LoggerFrom(c).Warn().Err(err).Str("session_id", sessionID).Msg("turn key lookup failed")
		case exists:
			c.Set(ctxKeyIdemReplay, true)
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}
}
