package handlers

import (
	"context"
	"net/http"
	"slices"
	"testing"

	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/persona"
	"github.com/tbourn/go-coach-sim/internal/services"
)

func TestListPersonas_AllAndByCity(t *testing.T) {
	r := newTestRouter(New(testCatalog, &stubSessions{}, &stubDashboard{}, &stubMemory{}))

	w := do(t, r, http.MethodGet, "/personas", nil, nil)
	all := decode[ListPersonasResponse](t, w)
	if w.Code != http.StatusOK || all.Total != testCatalog.Len() || len(all.Personas) != all.Total {
		t.Fatalf("unexpected listing: %d total=%d", w.Code, all.Total)
	}
	if !slices.Contains(all.Cities, "Mumbai") || !slices.IsSorted(all.Cities) {
		t.Fatalf("unexpected cities: %v", all.Cities)
	}

	w = do(t, r, http.MethodGet, "/personas?city=mumbai", nil, nil)
	mumbai := decode[ListPersonasResponse](t, w)
	if mumbai.Total == 0 || mumbai.Total >= all.Total {
		t.Fatalf("expected a strict subset for Mumbai, got %d of %d", mumbai.Total, all.Total)
	}
	for _, p := range mumbai.Personas {
		if p.City != "Mumbai" {
			t.Fatalf("unexpected city %q in Mumbai listing", p.City)
		}
	}

	w = do(t, r, http.MethodGet, "/personas?city=Atlantis", nil, nil)
	none := decode[ListPersonasResponse](t, w)
	if none.Total != 0 || none.Personas == nil {
		t.Fatalf("expected empty non-nil list, got %+v", none)
	}
	if !slices.Equal(none.Cities, all.Cities) {
		t.Fatalf("city list should not depend on the filter: %v", none.Cities)
	}
}

func TestListPersonas_Search(t *testing.T) {
	r := newTestRouter(New(testCatalog, &stubSessions{}, &stubDashboard{}, &stubMemory{}))

	w := do(t, r, http.MethodGet, "/personas?q=software+engineer+career&limit=2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	res := decode[SearchPersonasResponse](t, w)
	if len(res.Matches) == 0 || len(res.Matches) > 2 {
		t.Fatalf("expected 1..2 matches, got %d", len(res.Matches))
	}
}

func TestGetPersona(t *testing.T) {
	r := newTestRouter(New(testCatalog, &stubSessions{}, &stubDashboard{}, &stubMemory{}))

	w := do(t, r, http.MethodGet, "/personas/rahul-mumbai-it", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[PersonaResponse](t, w)
	p, _ := testCatalog.Get("rahul-mumbai-it")
	if got.ID != p.ID || got.Name != p.Name || got.WelcomeMessage != persona.WelcomeMessage(p) {
		t.Fatalf("unexpected persona: %+v", got)
	}

	expectError(t, do(t, r, http.MethodGet, "/personas/nobody", nil, nil), http.StatusNotFound, ErrCodePersonaNotFound)
}

func TestPersonaSessions(t *testing.T) {
	ss := &stubSessions{history: func(_ context.Context, _, p string) ([]memory.Session, error) {
		if p != "rahul-mumbai-it" {
			return nil, services.ErrPersonaNotFound
		}
		return nil, nil
	}}
	r := newTestRouter(New(testCatalog, ss, &stubDashboard{}, &stubMemory{}))

	w := do(t, r, http.MethodGet, "/personas/rahul-mumbai-it/sessions", nil, nil)
	if got := decode[SessionHistoryResponse](t, w); w.Code != http.StatusOK || got.Sessions == nil {
		t.Fatalf("expected empty non-nil sessions, got %d %+v", w.Code, got)
	}
	expectError(t, do(t, r, http.MethodGet, "/personas/nobody/sessions", nil, nil), http.StatusNotFound, ErrCodePersonaNotFound)
}

func TestMemoryEndpoints(t *testing.T) {
	ms := &stubMemory{}
	r := newTestRouter(New(testCatalog, &stubSessions{}, &stubDashboard{}, ms))
	hdr := map[string]string{"X-User-ID": "u1"}

	w := do(t, r, http.MethodGet, "/personas/rahul-mumbai-it/memory", nil, hdr)
	if mem := decode[memory.PersonaMemory](t, w); w.Code != http.StatusOK || mem.PersonaID != "rahul-mumbai-it" {
		t.Fatalf("unexpected memory: %d %+v", w.Code, mem)
	}

	if w := do(t, r, http.MethodPost, "/personas/rahul-mumbai-it/memory/insights", TextRequest{Text: "fears failure"}, hdr); w.Code != http.StatusNoContent {
		t.Fatalf("insight status = %d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/personas/rahul-mumbai-it/memory/goals", TextRequest{Text: "ask for a raise"}, hdr); w.Code != http.StatusNoContent {
		t.Fatalf("goal status = %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/personas/rahul-mumbai-it/memory", nil, hdr); w.Code != http.StatusNoContent {
		t.Fatalf("clear persona status = %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/memory", nil, hdr); w.Code != http.StatusNoContent {
		t.Fatalf("clear all status = %d", w.Code)
	}

	want := []memCall{
		{"get", "u1", "rahul-mumbai-it", ""},
		{"insight", "u1", "rahul-mumbai-it", "fears failure"},
		{"goal", "u1", "rahul-mumbai-it", "ask for a raise"},
		{"clear", "u1", "rahul-mumbai-it", ""},
		{"clear", "u1", "", ""},
	}
	if len(ms.calls) != len(want) {
		t.Fatalf("calls = %+v", ms.calls)
	}
	for i := range want {
		if ms.calls[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, ms.calls[i], want[i])
		}
	}
}

func TestMemoryEndpoints_Errors(t *testing.T) {
	r := newTestRouter(New(testCatalog, &stubSessions{}, &stubDashboard{}, &stubMemory{err: services.ErrPersonaNotFound}))
	expectError(t, do(t, r, http.MethodGet, "/personas/nobody/memory", nil, nil), http.StatusNotFound, ErrCodePersonaNotFound)
	expectError(t, do(t, r, http.MethodDelete, "/personas/nobody/memory", nil, nil), http.StatusNotFound, ErrCodePersonaNotFound)

	r = newTestRouter(New(testCatalog, &stubSessions{}, &stubDashboard{}, &stubMemory{err: services.ErrEmptyText}))
	expectError(t, do(t, r, http.MethodPost, "/personas/rahul-mumbai-it/memory/goals", TextRequest{Text: "  "}, nil), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, do(t, r, http.MethodPost, "/personas/rahul-mumbai-it/memory/insights", `{}`, nil), http.StatusBadRequest, ErrCodeBadRequest)
}
