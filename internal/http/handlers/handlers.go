// Package handlers exposes the coaching simulator over HTTP.
//
// Handlers are transport-thin: they validate input, call application
// services through the narrow interfaces declared here, and translate results
// and service errors into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/evaluation"
	"github.com/tbourn/go-coach-sim/internal/http/middleware"
	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/persona"
	"github.com/tbourn/go-coach-sim/internal/services"
)

//
// Service contracts (context-aware)
//

// PersonaCatalog is the read-only persona catalog.
type PersonaCatalog interface {
	List() []persona.Profile
	Get(id string) (persona.Profile, error)
	ByCity(city string) []persona.Profile
	Cities() []string
	Search(query string, k int) []persona.Match
}

// SessionService drives coaching sessions.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SessionService interface {
	Start(ctx context.Context, userID, personaID string) (memory.Session, domain.Message, error)
	Get(ctx context.Context, userID, sessionID string) (memory.Session, error)
	Post(ctx context.Context, userID, sessionID, content string) (services.Turn, error)
	// Lookup returns the turn recorded under an idempotency key.
	Lookup(ctx context.Context, userID, sessionID, key string) (services.Turn, bool)
	// Remember records a turn under an idempotency key, best effort.
	Remember(ctx context.Context, userID, sessionID, key string, turn services.Turn, status int)
	Live(ctx context.Context, userID, sessionID string) (evaluation.LiveEvaluation, error)
	Summary(ctx context.Context, userID, sessionID string) (string, error)
	End(ctx context.Context, userID, sessionID string) (services.EndResult, error)
	History(ctx context.Context, userID, personaID string) ([]memory.Session, error)
}

// DashboardService reads saved sessions back.
type DashboardService interface {
	Sessions(ctx context.Context, userID string, limit int) ([]domain.CoachingSession, error)
	Session(ctx context.Context, userID, id string) (*domain.CoachingSession, error)
	// Stamp returns the saved session count and latest update, for ETags.
	Stamp(ctx context.Context, userID string) (int64, *time.Time, error)
	Stats(ctx context.Context, userID string) (services.UserStats, error)
	PersonaStats(ctx context.Context, userID, personaID string) (services.PersonaStats, error)
	Progress(ctx context.Context, userID, personaID string) (evaluation.ProgressReport, bool, error)
}

// MemoryService manages persona memory.
type MemoryService interface {
	Get(ctx context.Context, userID, personaID string) (memory.PersonaMemory, error)
	AddInsight(ctx context.Context, userID, personaID, insight string) error
	SetGoal(ctx context.Context, userID, personaID, goal string) error
	Clear(ctx context.Context, userID, personaID string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints.
type Handlers struct {
	catalog   PersonaCatalog
	sessions  SessionService
	dashboard DashboardService
	memory    MemoryService
}

// New constructs Handlers bound to the given services.
func New(cat PersonaCatalog, sessions SessionService, dash DashboardService, mem MemoryService) *Handlers {
	return &Handlers{catalog: cat, sessions: sessions, dashboard: dash, memory: mem}
}

// userID returns the caller resolved by middleware.UserIdentity.
func userID(c *gin.Context) string { return middleware.UserIDFrom(c) }
