package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c.Request = req

	if key := KeyByUserOrIP()(c); !strings.HasPrefix(key, "ip:") || !strings.Contains(key, "203.0.113.9") {
		t.Fatalf("expected ip-based key; got %q", key)
	}

	c.Set(CtxKeyUserID, "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("expected user-based key; got %q", key)
	}
}

func TestRateLimiter_BucketReuseAndCostClamp(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	lim := rl.bucket("k1")
	if rl.bucket("k1") != lim || rl.bucket("k2") == lim {
		t.Fatalf("buckets not keyed per identity")
	}

	rl = NewRateLimiter(1, 4, KeyByUserOrIP()).
		Cost(http.MethodPost, "/sessions/:id/messages", 9).
		Cost(http.MethodGet, "/personas", 0)
	if rl.costs["POST /sessions/:id/messages"] != 4 || rl.costs["GET /personas"] != 1 {
		t.Fatalf("costs = %v", rl.costs)
	}
}

func TestIsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if IsRateBypass(c) {
		t.Fatalf("expected IsRateBypass=false by default")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatalf("expected IsRateBypass=true when set")
	}
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatalf("non-bool must read as false")
	}
}

func TestRateLimiter_Handler_Allow_Deny_And_Bypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1.0, 1, KeyByUserOrIP())

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header(requestIDHeader, "rid-1"); c.Next() })
	r.Use(rl.Handler())
	r.GET("/personas", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/personas", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request should be allowed, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/personas", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be rate-limited, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w2.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["code"] != "rate_limited" || body["request_id"] != "rid-1" {
		t.Fatalf("unexpected JSON body: %v", body)
	}

	rBypass := gin.New()
	rBypass.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	rBypass.Use(rl.Handler())
	rBypass.GET("/personas", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w3 := httptest.NewRecorder()
	rBypass.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/personas", nil))
	if w3.Code != http.StatusOK {
		t.Fatalf("replayed turn should bypass the limiter, got %d", w3.Code)
	}
}

func TestRateLimiter_TurnsCostMore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// Slow refill so the test never sees tokens come back.
	rl := NewRateLimiter(0.01, 4, KeyByUserOrIP()).Cost(http.MethodPost, "/sessions/:id/messages", 3)

	r := gin.New()
	r.Use(rl.Handler())
	r.POST("/sessions/:id/messages", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/personas", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	if w := do(http.MethodPost, "/sessions/s1/messages"); w.Code != http.StatusCreated {
		t.Fatalf("first turn: %d", w.Code)
	}
	// One token left: a second turn is refused, a cheap read still passes.
	w := do(http.MethodPost, "/sessions/s1/messages")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second turn: %d", w.Code)
	}
	if ra, _ := time.ParseDuration(w.Header().Get("Retry-After") + "s"); ra < 100*time.Second {
		t.Fatalf("Retry-After too small: %q", w.Header().Get("Retry-After"))
	}
	if w := do(http.MethodGet, "/personas"); w.Code != http.StatusOK {
		t.Fatalf("read after turn: %d", w.Code)
	}
}

func Test_retryAfter(t *testing.T) {
	now := time.Now()
	lim := rate.NewLimiter(2, 2)
	if got := retryAfter(lim, now, 1); got != 1 {
		t.Fatalf("full bucket: %d", got)
	}
	lim.AllowN(now, 2)
	if got := retryAfter(lim, now, 2); got != 1 {
		t.Fatalf("2 tokens at 2/s: %d", got)
	}
	if got := retryAfter(rate.NewLimiter(0, 1), now, 1); got != 1 {
		t.Fatalf("zero limit: %d", got)
	}
}
