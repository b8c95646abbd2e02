// Persona HTTP handlers.
//
// This file exposes the persona catalog and per-persona state:
//   - GET    /personas                        (list, filter by city, search)
//   - GET    /personas/{id}                   (profile + welcome line)
//   - GET    /personas/{id}/sessions          (session history)
//   - GET    /personas/{id}/memory            (persona memory)
//   - POST   /personas/{id}/memory/insights   (record a key insight)
//   - POST   /personas/{id}/memory/goals      (record a goal)
//   - DELETE /personas/{id}/memory            (forget the persona)
//   - DELETE /memory                          (forget everything)
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/persona"
	"github.com/tbourn/go-coach-sim/internal/services"
	"github.com/tbourn/go-coach-sim/internal/utils"
)

//
// DTOs
//

// PersonaResponse is a profile with the line it opens sessions with.
type PersonaResponse struct {
	persona.Profile
	WelcomeMessage string `json:"welcome_message"`
}

// ListPersonasResponse wraps a catalog listing. Cities lists every city in
// the catalog, whatever the filter, for building the city picker.
type ListPersonasResponse struct {
	Personas []persona.Profile `json:"personas"`
	Total    int               `json:"total"`
	Cities   []string          `json:"cities"`
}

// SearchPersonasResponse wraps ranked search hits.
type SearchPersonasResponse struct {
	Matches []persona.Match `json:"matches"`
}

// SessionHistoryResponse lists a persona's sessions, newest first.
type SessionHistoryResponse struct {
	Sessions []memory.Session `json:"sessions"`
}

// TextRequest carries an insight or a goal.
type TextRequest struct {
	Text string `json:"text" binding:"required" example:"Fears disappointing his parents"`
}

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

//
// Handlers
//

// ListPersonas godoc
// @ID          listPersonas
// @Summary     List or search personas
// @Description Without q, lists the catalog (optionally filtered by city). With q, returns keyword matches ranked by similarity.
// @Tags        Personas
// @Produce     json
//
// @Param       city   query  string  false "City filter (case-insensitive)"  example(Mumbai)
// @Param       q      query  string  false "Search query"                     example(startup funding)
// @Param       limit  query  int     false "Max search hits"                  minimum(1) maximum(20) default(5)
//
// @Success     200  {object}  handlers.ListPersonasResponse "Catalog listing, or handlers.SearchPersonasResponse when q is set"
// @Router      /personas [get]
func (h *Handlers) ListPersonas(c *gin.Context) {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		limit := utils.QueryLimit(c.Query("limit"), defaultSearchLimit, maxSearchLimit)
		ok(c, http.StatusOK, SearchPersonasResponse{Matches: h.catalog.Search(q, limit)})
		return
	}

	var list []persona.Profile
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		list = h.catalog.ByCity(city)
	} else {
		list = h.catalog.List()
	}
	if list == nil {
		list = []persona.Profile{}
	}
	ok(c, http.StatusOK, ListPersonasResponse{Personas: list, Total: len(list), Cities: h.catalog.Cities()})
}

// GetPersona godoc
// @ID          getPersona
// @Summary     Get a persona
// @Tags        Personas
// @Produce     json
// @Param       id   path  string  true  "Persona ID"  example(rahul-mumbai-it)
// @Success     200  {object}  handlers.PersonaResponse
// @Failure     404  {object}  handlers.ErrorResponse "Persona not found"
// @Router      /personas/{id} [get]
func (h *Handlers) GetPersona(c *gin.Context) {
	p, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, persona.ErrUnknownPersona) {
			fail(c, http.StatusNotFound, ErrCodePersonaNotFound, "persona not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, PersonaResponse{Profile: p, WelcomeMessage: persona.WelcomeMessage(p)})
}

// PersonaSessions godoc
// @ID          personaSessions
// @Summary     Session history with a persona
// @Tags        Personas
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"     example(user123)
// @Param       id         path    string  true  "Persona ID"  example(rahul-mumbai-it)
// @Success     200  {object}  handlers.SessionHistoryResponse
// @Failure     404  {object}  handlers.ErrorResponse "Persona not found"
// @Router      /personas/{id}/sessions [get]
func (h *Handlers) PersonaSessions(c *gin.Context) {
	list, err := h.sessions.History(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	if list == nil {
		list = []memory.Session{}
	}
	ok(c, http.StatusOK, SessionHistoryResponse{Sessions: list})
}

// GetMemory godoc
// @ID          getMemory
// @Summary     Persona memory
// @Description Conversation history, emotional journey, key memories and coaching progress remembered for the persona.
// @Tags        Memory
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID"     example(user123)
// @Param       id         path    string  true  "Persona ID"  example(rahul-mumbai-it)
// @Success     200  {object}  memory.PersonaMemory
// @Failure     404  {object}  handlers.ErrorResponse "Persona not found"
// @Router      /personas/{id}/memory [get]
func (h *Handlers) GetMemory(c *gin.Context) {
	mem, err := h.memory.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, mem)
}

// AddInsight godoc
// @ID          addInsight
// @Summary     Record a key insight
// @Tags        Memory
// @Accept      json
// @Param       X-User-ID  header  string  false "User ID"     example(user123)
// @Param       id         path    string  true  "Persona ID"  example(rahul-mumbai-it)
// @Param       body       body    handlers.TextRequest  true  "Insight"
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Persona not found"
// @Router      /personas/{id}/memory/insights [post]
func (h *Handlers) AddInsight(c *gin.Context) {
	h.recordText(c, h.memory.AddInsight)
}

// SetGoal godoc
// @ID          setGoal
// @Summary     Record a coaching goal
// @Tags        Memory
// @Accept      json
// @Param       X-User-ID  header  string  false "User ID"     example(user123)
// @Param       id         path    string  true  "Persona ID"  example(rahul-mumbai-it)
// @Param       body       body    handlers.TextRequest  true  "Goal"
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Persona not found"
// @Router      /personas/{id}/memory/goals [post]
func (h *Handlers) SetGoal(c *gin.Context) {
	h.recordText(c, h.memory.SetGoal)
}

func (h *Handlers) recordText(c *gin.Context, record func(ctx context.Context, userID, personaID, text string) error) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}
	if err := record(c.Request.Context(), userID(c), c.Param("id"), req.Text); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// ClearPersonaMemory godoc
// @ID          clearPersonaMemory
// @Summary     Forget a persona
// @Description Removes the persona's memory and its sessions.
// @Tags        Memory
// @Param       X-User-ID  header  string  false "User ID"     example(user123)
// @Param       id         path    string  true  "Persona ID"  example(rahul-mumbai-it)
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse "Persona not found"
// @Router      /personas/{id}/memory [delete]
func (h *Handlers) ClearPersonaMemory(c *gin.Context) {
	personaID := c.Param("id")
	if personaID == "" {
		failService(c, services.ErrPersonaNotFound)
		return
	}
	if err := h.memory.Clear(c.Request.Context(), userID(c), personaID); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// ClearMemory godoc
// @ID          clearMemory
// @Summary     Forget everything
// @Description Removes every persona memory and session of the user.
// @Tags        Memory
// @Param       X-User-ID  header  string  false "User ID"  example(user123)
// @Success     204  {string}  string "No Content"
// @Router      /memory [delete]
func (h *Handlers) ClearMemory(c *gin.Context) {
	if err := h.memory.Clear(c.Request.Context(), userID(c), ""); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
