// Package handlers provides HTTP handler implementations for the public API.
//
// Every error leaves through fail() as an ErrorResponse with a stable code;
// successes go through ok(), noContent() or replayed().
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "session_ended",
//	  "message": "session already ended"
//	}
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-coach-sim/internal/http/middleware"
)

// retryAfterSeconds is advertised with 503 connection_error.
const retryAfterSeconds = 5

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"session_not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"session not found"`
}

// fail aborts with an ErrorResponse. The error code is recorded on the
// request span; 5xx are logged and mark the span failed. A 503 carries
// Retry-After so clients back off before retrying a turn.
func fail(c *gin.Context, status int, code, msg string) {
	span := trace.SpanFromContext(c.Request.Context())
	span.SetAttributes(attribute.String("coachsim.error_code", code))

	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, code)
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail() for callers outside the package, e.g. router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// replayed answers 200 with a turn recorded under the request's
// Idempotency-Key and flags it with Idempotency-Replayed: true.
func replayed(c *gin.Context, body any) {
	c.Header("Idempotency-Replayed", "true")
	trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.Bool("coachsim.replayed", true))
	c.JSON(http.StatusOK, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
