// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// user identity, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-coach-sim/docs"
	"github.com/tbourn/go-coach-sim/internal/config"
	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/http/handlers"
	"github.com/tbourn/go-coach-sim/internal/http/middleware"
	"github.com/tbourn/go-coach-sim/internal/llm"
	"github.com/tbourn/go-coach-sim/internal/persona"
	"github.com/tbourn/go-coach-sim/internal/repo"
	"github.com/tbourn/go-coach-sim/internal/services"
)

// dashRepoShim adapts the repository free functions to the
// services.DashboardRepo interface expected by the DashboardService.
type dashRepoShim struct{}

// ListUserSessions proxies repo.ListUserSessions.
func (dashRepoShim) ListUserSessions(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.CoachingSession, error) {
	return repo.ListUserSessions(ctx, db, userID, limit)
}

// GetSessionRecord proxies repo.GetSessionRecord.
func (dashRepoShim) GetSessionRecord(ctx context.Context, db *gorm.DB, id, userID string) (*domain.CoachingSession, error) {
	return repo.GetSessionRecord(ctx, db, id, userID)
}

// ListPersonaSessions proxies repo.ListPersonaSessions.
func (dashRepoShim) ListPersonaSessions(ctx context.Context, db *gorm.DB, userID, personaID string) ([]domain.CoachingSession, error) {
	return repo.ListPersonaSessions(ctx, db, userID, personaID)
}

// ListUserScores proxies repo.ListUserScores.
func (dashRepoShim) ListUserScores(ctx context.Context, db *gorm.DB, userID string) ([]domain.CompetencyScore, error) {
	return repo.ListUserScores(ctx, db, userID)
}

// ListPersonaScores proxies repo.ListPersonaScores.
func (dashRepoShim) ListPersonaScores(ctx context.Context, db *gorm.DB, userID, personaID string) ([]domain.CompetencyScore, error) {
	return repo.ListPersonaScores(ctx, db, userID, personaID)
}

// SessionsStats proxies repo.SessionsStats (ETag support).
func (dashRepoShim) SessionsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return repo.SessionsStats(ctx, db, userID)
}

// Ping proxies repo.Ping.
func (dashRepoShim) Ping(ctx context.Context, db *gorm.DB) error {
	return repo.Ping(ctx, db)
}

// Deps are the application components the routes dispatch to. The
// dashboard is built here from the database handle.
type Deps struct {
	Catalog  *persona.Catalog
	Sessions *services.SessionService
	Memory   *services.MemoryService
	// LLM is pinged by /ready; nil skips the check.
	LLM llm.Pinger
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), user identity,
// idempotency and rate limiting, CORS and security headers, health, readiness
// and metrics endpoints, and then mounts the versioned public API under
// cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. User identity (X-User-ID, then the configured default user)
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Who is asking
	r.Use(middleware.UserIdentity(cfg.Coaching.DefaultUserID))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{},
		func(ctx context.Context, userID, sessionID, key string, now time.Time) (bool, error) {
			_, err := repo.FindTurnKey(ctx, db, userID, sessionID, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	// Turns and session starts call the language model; price them higher.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).
		Cost(http.MethodPost, cfg.APIBasePath+"/sessions/:id/messages", 2).
		Cost(http.MethodPost, cfg.APIBasePath+"/sessions", 2)
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	// Transcripts and memory are never cached; the dashboard revalidates via ETag.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
		NoStorePrefixes: []string{
			cfg.APIBasePath + "/sessions",
			cfg.APIBasePath + "/personas/",
			cfg.APIBasePath + "/memory",
		},
		SwaggerPrefix: "/swagger/",
		EnablePolicy:  true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: dashboard ← repo/db
	dashSvc := services.NewDashboardService(db, dashRepoShim{})
	h := handlers.New(deps.Catalog, deps.Sessions, dashSvc, deps.Memory)

	// Liveness/readiness
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", readiness(dashSvc, deps.LLM))

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		// Personas and memory
		api.GET("/personas", h.ListPersonas)
		api.GET("/personas/:id", h.GetPersona)
		api.GET("/personas/:id/sessions", h.PersonaSessions)
		api.GET("/personas/:id/memory", h.GetMemory)
		api.POST("/personas/:id/memory/insights", h.AddInsight)
		api.POST("/personas/:id/memory/goals", h.SetGoal)
		api.DELETE("/personas/:id/memory", h.ClearPersonaMemory)
		api.DELETE("/memory", h.ClearMemory)

		// Sessions
		api.POST("/sessions", h.StartSession)
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/messages", h.PostMessage)
		api.GET("/sessions/:id/evaluation", h.LiveEvaluation)
		api.GET("/sessions/:id/summary", h.SessionSummary)
		api.POST("/sessions/:id/end", h.EndSession)

		// Dashboard
		api.GET("/dashboard/sessions", h.ListSessions)
		api.GET("/dashboard/sessions/:id", h.GetSavedSession)
		api.GET("/dashboard/stats", h.UserStats)
		api.GET("/dashboard/progress", h.Progress)
		api.GET("/dashboard/personas/:id/stats", h.PersonaStats)
	}
}

// readiness answers 200 when the database (and the LLM provider, when one
// is configured) responds, 503 connection_error otherwise.
func readiness(dash *services.DashboardService, model llm.Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := dash.Ping(ctx); err != nil {
			handlers.Fail(c, http.StatusServiceUnavailable, handlers.ErrCodeConnection, "database unavailable")
			return
		}
		llmStatus := "disabled"
		if model != nil {
			if err := model.Ping(ctx); err != nil {
				handlers.Fail(c, http.StatusServiceUnavailable, handlers.ErrCodeConnection, "language model unavailable")
				return
			}
			llmStatus = "ok"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok", "llm": llmStatus})
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
