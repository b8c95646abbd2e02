package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the caller's identity when no auth layer sets one.
const HeaderUserID = "X-User-ID"

const (
	// CtxKeyUserID is the Gin context key holding the resolved user id.
	CtxKeyUserID = "userID"

	ctxKeyUserFallback = "user.fallback" // bool: the default id was used
)

// UserIdentity resolves the caller once per request: an id already set by an
// upstream auth middleware wins, then the X-User-ID header, then fallback.
// Downstream code reads it with UserIDFrom.
func UserIdentity(fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s, ok := c.Get(CtxKeyUserID); ok {
			if v, _ := s.(string); v != "" {
				c.Next()
				return
			}
		}
		if h := strings.TrimSpace(c.GetHeader(HeaderUserID)); h != "" {
			c.Set(CtxKeyUserID, h)
		} else {
			c.Set(CtxKeyUserID, fallback)
			c.Set(ctxKeyUserFallback, true)
		}
		c.Next()
	}
}

// UserIDFrom returns the resolved user id, or "anonymous" when UserIdentity
// did not run.
func UserIDFrom(c *gin.Context) string {
	if v, ok := c.Get(CtxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "anonymous"
}

// isFallbackUser reports whether the request carries no real identity.
func isFallbackUser(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyUserFallback)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
