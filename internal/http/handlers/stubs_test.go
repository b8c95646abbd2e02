package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/evaluation"
	"github.com/tbourn/go-coach-sim/internal/http/middleware"
	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/persona"
	"github.com/tbourn/go-coach-sim/internal/services"
)

var testCatalog = persona.MustLoad()

// ---------- session service stub ----------

type stubSessions struct {
	start    func(ctx context.Context, userID, personaID string) (memory.Session, domain.Message, error)
	get      func(ctx context.Context, userID, sessionID string) (memory.Session, error)
	post     func(ctx context.Context, userID, sessionID, content string) (services.Turn, error)
	lookup   func(ctx context.Context, userID, sessionID, key string) (services.Turn, bool)
	live     func(ctx context.Context, userID, sessionID string) (evaluation.LiveEvaluation, error)
	summary  func(ctx context.Context, userID, sessionID string) (string, error)
	end      func(ctx context.Context, userID, sessionID string) (services.EndResult, error)
	history  func(ctx context.Context, userID, personaID string) ([]memory.Session, error)
	remember []string // keys passed to Remember
}

func (s *stubSessions) Start(ctx context.Context, u, p string) (memory.Session, domain.Message, error) {
	if s.start != nil {
		return s.start(ctx, u, p)
	}
	return memory.Session{}, domain.Message{}, nil
}

func (s *stubSessions) Get(ctx context.Context, u, id string) (memory.Session, error) {
	if s.get != nil {
		return s.get(ctx, u, id)
	}
	return memory.Session{ID: id}, nil
}

func (s *stubSessions) Post(ctx context.Context, u, id, content string) (services.Turn, error) {
	if s.post != nil {
		return s.post(ctx, u, id, content)
	}
	return services.Turn{}, nil
}

func (s *stubSessions) Lookup(ctx context.Context, u, id, key string) (services.Turn, bool) {
	if s.lookup != nil {
		return s.lookup(ctx, u, id, key)
	}
	return services.Turn{}, false
}

func (s *stubSessions) Remember(_ context.Context, _, _, key string, _ services.Turn, _ int) {
	s.remember = append(s.remember, key)
}

func (s *stubSessions) Live(ctx context.Context, u, id string) (evaluation.LiveEvaluation, error) {
	if s.live != nil {
		return s.live(ctx, u, id)
	}
	return evaluation.LiveEvaluation{}, nil
}

func (s *stubSessions) Summary(ctx context.Context, u, id string) (string, error) {
	if s.summary != nil {
		return s.summary(ctx, u, id)
	}
	return "", nil
}

func (s *stubSessions) End(ctx context.Context, u, id string) (services.EndResult, error) {
	if s.end != nil {
		return s.end(ctx, u, id)
	}
	return services.EndResult{}, nil
}

func (s *stubSessions) History(ctx context.Context, u, p string) ([]memory.Session, error) {
	if s.history != nil {
		return s.history(ctx, u, p)
	}
	return nil, nil
}

// ---------- dashboard stub ----------

type stubDashboard struct {
	sessions []domain.CoachingSession
	count    int64
	at       *time.Time
	stats    services.UserStats
	pstats   services.PersonaStats
	progress evaluation.ProgressReport
	found    bool
	err      error
	calls    int
	limit    int
}

func (d *stubDashboard) Sessions(_ context.Context, _ string, limit int) ([]domain.CoachingSession, error) {
	d.calls++
	d.limit = limit
	return d.sessions, d.err
}

func (d *stubDashboard) Session(_ context.Context, _, id string) (*domain.CoachingSession, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, s := range d.sessions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, services.ErrSessionNotFound
}

func (d *stubDashboard) Stamp(context.Context, string) (int64, *time.Time, error) {
	return d.count, d.at, d.err
}

func (d *stubDashboard) Stats(context.Context, string) (services.UserStats, error) {
	return d.stats, d.err
}

func (d *stubDashboard) PersonaStats(_ context.Context, _, personaID string) (services.PersonaStats, error) {
	d.pstats.PersonaID = personaID
	return d.pstats, d.err
}

func (d *stubDashboard) Progress(context.Context, string, string) (evaluation.ProgressReport, bool, error) {
	return d.progress, d.found, d.err
}

// ---------- memory stub ----------

type memCall struct{ op, user, persona, text string }

type stubMemory struct {
	calls []memCall
	err   error
}

func (m *stubMemory) Get(_ context.Context, u, p string) (memory.PersonaMemory, error) {
	m.calls = append(m.calls, memCall{"get", u, p, ""})
	return memory.PersonaMemory{PersonaID: p, ContextSummary: memory.DefaultContextSummary}, m.err
}

func (m *stubMemory) AddInsight(_ context.Context, u, p, text string) error {
	m.calls = append(m.calls, memCall{"insight", u, p, text})
	return m.err
}

func (m *stubMemory) SetGoal(_ context.Context, u, p, text string) error {
	m.calls = append(m.calls, memCall{"goal", u, p, text})
	return m.err
}

func (m *stubMemory) Clear(_ context.Context, u, p string) error {
	m.calls = append(m.calls, memCall{"clear", u, p, ""})
	return m.err
}

// ---------- router + request helpers ----------

func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.UserIdentity("anonymous"))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	r.GET("/personas", h.ListPersonas)
	r.GET("/personas/:id", h.GetPersona)
	r.GET("/personas/:id/sessions", h.PersonaSessions)
	r.GET("/personas/:id/memory", h.GetMemory)
	r.POST("/personas/:id/memory/insights", h.AddInsight)
	r.POST("/personas/:id/memory/goals", h.SetGoal)
	r.DELETE("/personas/:id/memory", h.ClearPersonaMemory)
	r.DELETE("/memory", h.ClearMemory)

	r.POST("/sessions", h.StartSession)
	r.GET("/sessions/:id", h.GetSession)
	r.POST("/sessions/:id/messages", h.PostMessage)
	r.GET("/sessions/:id/evaluation", h.LiveEvaluation)
	r.GET("/sessions/:id/summary", h.SessionSummary)
	r.POST("/sessions/:id/end", h.EndSession)

	r.GET("/dashboard/sessions", h.ListSessions)
	r.GET("/dashboard/sessions/:id", h.GetSavedSession)
	r.GET("/dashboard/stats", h.UserStats)
	r.GET("/dashboard/progress", h.Progress)
	r.GET("/dashboard/personas/:id/stats", h.PersonaStats)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code = %q, want %q", er.Code, code)
	}
	return er
}
