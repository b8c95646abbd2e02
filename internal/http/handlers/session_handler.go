// Session HTTP handlers.
//
// This file exposes the coaching session lifecycle:
//   - POST /sessions                  (start with a persona)
//   - GET  /sessions/{id}             (transcript)
//   - POST /sessions/{id}/messages    (coach message + client reply)
//   - GET  /sessions/{id}/evaluation  (live evaluation)
//   - GET  /sessions/{id}/summary     (client situation summary)
//   - POST /sessions/{id}/end         (end, evaluate, save)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a turn was already
// recorded for (user, session, key), the handler returns that turn and sets
// `Idempotency-Replayed: true` instead of asking for a second reply.
package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/http/middleware"
	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/services"
)

//
// DTOs
//

// StartSessionRequest is the JSON payload for starting a session.
type StartSessionRequest struct {
	PersonaID string `json:"persona_id" binding:"required" example:"rahul-mumbai-it"`
}

// StartSessionResponse carries the new session and the client's first line.
type StartSessionResponse struct {
	Session        memory.Session `json:"session"`
	WelcomeMessage domain.Message `json:"welcome_message"`
	MessageCount   int            `json:"message_count"`
}

// PostMessageRequest is the JSON payload for a coach message. Content is
// normalized (line endings, blank-line runs) before it reaches the service.
type PostMessageRequest struct {
	Content string `json:"content" binding:"required,min=1" example:"What feels most pressing for you right now?"`
}

// SummaryResponse wraps the client situation summary.
type SummaryResponse struct {
	SessionID string `json:"session_id"`
	Summary   string `json:"summary"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent converts CRLF/CR to LF, collapses runs of 3+ LFs to two
// and trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

//
// Handlers
//

// StartSession godoc
// @ID          startSession
// @Summary     Start a coaching session
// @Description Opens a session with the persona. The persona's welcome line is the first transcript message.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID"  example(user123)
// @Param       body       body    handlers.StartSessionRequest  true  "Persona to coach"
//
// @Success     201  {object}  handlers.StartSessionResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Persona not found"
// @Router      /sessions [post]
func (h *Handlers) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.PersonaID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "persona_id required")
		return
	}
	sess, welcome, err := h.sessions.Start(c.Request.Context(), userID(c), strings.TrimSpace(req.PersonaID))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, StartSessionResponse{Session: sess, WelcomeMessage: welcome, MessageCount: sess.MessageCount()})
}

// GetSession godoc
// @ID          getSession
// @Summary     Get a session transcript
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"     example(user123)
// @Param       id         path    string  true  "Session ID"  example(1700000000000)
// @Success     200  {object}  memory.Session
// @Failure     404  {object}  handlers.ErrorResponse "Session not found"
// @Router      /sessions/{id} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, sess)
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a coach message and get the client's reply
// @Description Records the coach message and generates the simulated client's reply.
// @Description Supports idempotency via the Idempotency-Key header (same key → same turn).
// @Description When generation fails the coach message stays in the session and 502 is returned.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Session ID"  example(1700000000000)
// @Param       body             body    handlers.PostMessageRequest  true  "Coach message"
//
// @Success     200  {object}  services.Turn
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse "Session not accepting messages"
// @Failure     502  {object}  handlers.ErrorResponse "Client reply generation failed"
// @Router      /sessions/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")
	uid := userID(c)

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	content := sanitizeContent(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	// Idempotency (replay path).
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if prev, found := h.sessions.Lookup(ctx, uid, sessionID, idemKey); found {
			replayed(c, prev)
			return
		}
	}

	turn, err := h.sessions.Post(ctx, uid, sessionID, content)
	if err != nil {
		failService(c, err)
		return
	}

	// Idempotency (store path), best effort.
	if idemKey != "" {
		h.sessions.Remember(ctx, uid, sessionID, idemKey, turn, http.StatusOK)
	}
	ok(c, http.StatusOK, turn)
}

// LiveEvaluation godoc
// @ID          liveEvaluation
// @Summary     Evaluate the session so far
// @Description Live score, six-needs coverage, suggestions and breakthrough detection for the running transcript.
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"     example(user123)
// @Param       id         path    string  true  "Session ID"  example(1700000000000)
// @Success     200  {object}  evaluation.LiveEvaluation
// @Failure     404  {object}  handlers.ErrorResponse "Session not found"
// @Router      /sessions/{id}/evaluation [get]
func (h *Handlers) LiveEvaluation(c *gin.Context) {
	ev, err := h.sessions.Live(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ev)
}

// SessionSummary godoc
// @ID          sessionSummary
// @Summary     Client situation summary
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"     example(user123)
// @Param       id         path    string  true  "Session ID"  example(1700000000000)
// @Success     200  {object}  handlers.SummaryResponse
// @Failure     404  {object}  handlers.ErrorResponse "Session not found"
// @Router      /sessions/{id}/summary [get]
func (h *Handlers) SessionSummary(c *gin.Context) {
	sessionID := c.Param("id")
	text, err := h.sessions.Summary(c.Request.Context(), userID(c), sessionID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, SummaryResponse{SessionID: sessionID, Summary: text})
}

// EndSession godoc
// @ID          endSession
// @Summary     End a session
// @Description Ends the session, evaluates the transcript and saves it for the dashboard.
// @Description A failed save is reported as saved=false; the evaluation is still returned.
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"     example(user123)
// @Param       id         path    string  true  "Session ID"  example(1700000000000)
// @Success     200  {object}  services.EndResult
// @Failure     404  {object}  handlers.ErrorResponse "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse "Session already ended"
// @Failure     500  {object}  handlers.ErrorResponse "Evaluation failed"
// @Router      /sessions/{id}/end [post]
func (h *Handlers) EndSession(c *gin.Context) {
	res, err := h.sessions.End(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		if isServiceSentinel(err) {
			failService(c, err)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeEvaluationFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// isServiceSentinel reports whether err maps to a specific API error.
func isServiceSentinel(err error) bool {
	for _, s := range []error{
		services.ErrPersonaNotFound,
		services.ErrSessionNotFound,
		services.ErrSessionEnded,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
