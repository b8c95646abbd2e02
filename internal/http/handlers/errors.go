package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-coach-sim/internal/services"
)

// Error codes carried in ErrorResponse.Code. Clients branch on these, not on
// the message text.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "rate_limited" // written by middleware.RateLimiter
	ErrCodeInternal         = "internal_error"

	ErrCodePersonaNotFound  = "persona_not_found"
	ErrCodeSessionNotFound  = "session_not_found"
	ErrCodeSessionEnded     = "session_ended"
	ErrCodeSessionFull      = "session_full"
	ErrCodeTurnPending      = "turn_pending"
	ErrCodeGenerationFailed = "generation_failed"
	ErrCodeEvaluationFailed = "evaluation_failed"
	ErrCodeConnection       = "connection_error"
)

type serviceError struct {
	target  error
	status  int
	code    string
	message string // empty means "use err.Error()"
}

// serviceErrors is checked in order; the first errors.Is match wins.
var serviceErrors = []serviceError{
	{services.ErrPersonaNotFound, http.StatusNotFound, ErrCodePersonaNotFound, "persona not found"},
	{services.ErrSessionNotFound, http.StatusNotFound, ErrCodeSessionNotFound, "session not found"},
	{services.ErrSessionEnded, http.StatusConflict, ErrCodeSessionEnded, "session already ended"},
	{services.ErrSessionFull, http.StatusConflict, ErrCodeSessionFull, "session message limit reached"},
	{services.ErrTurnPending, http.StatusConflict, ErrCodeTurnPending, "previous message is still being answered"},
	{services.ErrEmptyMessage, http.StatusBadRequest, ErrCodeBadRequest, "content required"},
	{services.ErrTooLong, http.StatusBadRequest, ErrCodeBadRequest, "content too long"},
	{services.ErrEmptyText, http.StatusBadRequest, ErrCodeBadRequest, "text required"},
	// The coach message stays in the session; the client may retry.
	{services.ErrGeneration, http.StatusBadGateway, ErrCodeGenerationFailed, ""},
	{services.ErrConnection, http.StatusServiceUnavailable, ErrCodeConnection, "connection error, please retry"},
}

// failService maps a service error to the API error envelope.
func failService(c *gin.Context, err error) {
	for _, se := range serviceErrors {
		if !errors.Is(err, se.target) {
			continue
		}
		msg := se.message
		if msg == "" {
			msg = "Debug: " + err.Error() + ". Check console for details."
		}
		fail(c, se.status, se.code, msg)
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
}
