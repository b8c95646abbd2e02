// Dashboard HTTP handlers.
//
// This file exposes the read side of saved sessions:
//   - GET /dashboard/sessions                (recent sessions, ETag support)
//   - GET /dashboard/sessions/{id}           (one saved session)
//   - GET /dashboard/stats                   (overall user statistics)
//   - GET /dashboard/progress                (latest vs previous report)
//   - GET /dashboard/personas/{id}/stats     (per-persona statistics)
//
// Read failures answer 503 connection_error; clients retry manually.
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/evaluation"
	"github.com/tbourn/go-coach-sim/internal/repo"
	"github.com/tbourn/go-coach-sim/internal/utils"
)

const maxSessionLimit = 50

//
// DTOs
//

// ListSessionsResponse wraps the most recent saved sessions.
type ListSessionsResponse struct {
	Sessions []domain.CoachingSession `json:"sessions"`
}

// ProgressResponse reports progress between the two most recent reports.
// Available is false (and Progress nil) with fewer than two saved sessions.
type ProgressResponse struct {
	Available bool                       `json:"available"`
	Progress  *evaluation.ProgressReport `json:"progress,omitempty"`
}

//
// Handlers
//

// ListSessions godoc
// @ID          listSavedSessions
// @Summary     Recent saved sessions
// @Description Returns the user's most recent saved sessions. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Dashboard
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID"                     example(user123)
// @Param       limit          query   int     false "Max sessions"                minimum(1) maximum(50) default(10)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"sessions:user123:10:3:1700000000\")
//
// @Success     200  {object} handlers.ListSessionsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     503  {object} handlers.ErrorResponse "Connection error"
// @Router      /dashboard/sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	limit := utils.QueryLimit(c.Query("limit"), repo.DefaultSessionLimit, maxSessionLimit)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.dashboard.Stamp(ctx, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"sessions:%s:%d:%d:%d"`, uid, limit, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.dashboard.Sessions(ctx, uid, limit)
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.CoachingSession{}
	}
	ok(c, http.StatusOK, ListSessionsResponse{Sessions: items})
}

// GetSavedSession godoc
// @ID          getSavedSession
// @Summary     One saved session
// @Description Returns a saved session with its transcript and evaluation report.
// @Tags        Dashboard
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"           example(user123)
// @Param       id         path    string  true  "Saved session ID"
// @Success     200  {object}  domain.CoachingSession
// @Failure     404  {object}  handlers.ErrorResponse "Session not found"
// @Failure     503  {object}  handlers.ErrorResponse "Connection error"
// @Router      /dashboard/sessions/{id} [get]
func (h *Handlers) GetSavedSession(c *gin.Context) {
	rec, err := h.dashboard.Session(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// UserStats godoc
// @ID          userStats
// @Summary     Overall user statistics
// @Description Average score per competency, strongest and weakest area, and the overall trend.
// @Tags        Dashboard
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"  example(user123)
// @Success     200  {object}  services.UserStats
// @Failure     503  {object}  handlers.ErrorResponse "Connection error"
// @Router      /dashboard/stats [get]
func (h *Handlers) UserStats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

// Progress godoc
// @ID          progress
// @Summary     Progress between the two latest sessions
// @Tags        Dashboard
// @Produce     json
// @Param       X-User-ID   header  string  false "User ID"                         example(user123)
// @Param       persona_id  query   string  false "Restrict to one persona"         example(rahul-mumbai-it)
// @Success     200  {object}  handlers.ProgressResponse
// @Failure     503  {object}  handlers.ErrorResponse "Connection error"
// @Router      /dashboard/progress [get]
func (h *Handlers) Progress(c *gin.Context) {
	personaID := strings.TrimSpace(c.Query("persona_id"))
	pr, found, err := h.dashboard.Progress(c.Request.Context(), userID(c), personaID)
	if err != nil {
		failService(c, err)
		return
	}
	resp := ProgressResponse{Available: found}
	if found {
		resp.Progress = &pr
	}
	ok(c, http.StatusOK, resp)
}

// PersonaStats godoc
// @ID          personaStats
// @Summary     Statistics for one persona
// @Tags        Dashboard
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"     example(user123)
// @Param       id         path    string  true  "Persona ID"  example(rahul-mumbai-it)
// @Success     200  {object}  services.PersonaStats
// @Failure     404  {object}  handlers.ErrorResponse "Persona not found"
// @Failure     503  {object}  handlers.ErrorResponse "Connection error"
// @Router      /dashboard/personas/{id}/stats [get]
func (h *Handlers) PersonaStats(c *gin.Context) {
	personaID := c.Param("id")
	if _, err := h.catalog.Get(personaID); err != nil {
		fail(c, http.StatusNotFound, ErrCodePersonaNotFound, "persona not found")
		return
	}
	stats, err := h.dashboard.PersonaStats(c.Request.Context(), userID(c), personaID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}
