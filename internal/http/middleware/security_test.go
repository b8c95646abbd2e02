package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securedRouter(opt SecurityOptions, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	r.NoRoute(func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r http.Handler, path string, mut func(*http.Request)) http.Header {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mut != nil {
		mut(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_BaselineForAPI(t *testing.T) {
	r := securedRouter(SecurityOptions{}, func(c *gin.Context) {
		c.Header(requestIDHeader, "rid-1")
		c.Next()
	})
	h := get(r, "/api/v1/personas", nil)

	if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	if h.Get("Content-Security-Policy") != apiCSP {
		t.Fatalf("csp = %q", h.Get("Content-Security-Policy"))
	}
	if h.Get("Permissions-Policy") != "" || h.Get("Cache-Control") != "" || h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected optional headers: %#v", h)
	}
	if h.Get("Access-Control-Expose-Headers") != requestIDHeader {
		t.Fatalf("expose = %q", h.Get("Access-Control-Expose-Headers"))
	}
}

func TestSecurityHeaders_ExposeHeaderMerge(t *testing.T) {
	r := securedRouter(SecurityOptions{}, func(c *gin.Context) {
		c.Header(requestIDHeader, "rid")
		c.Header("Access-Control-Expose-Headers", c.GetHeader("X-Pre-Expose"))
		c.Next()
	})

	got := get(r, "/x", func(req *http.Request) { req.Header.Set("X-Pre-Expose", "ETag") })
	if v := got.Get("Access-Control-Expose-Headers"); v != "ETag, X-Request-ID" {
		t.Fatalf("append: got %q", v)
	}
	got = get(r, "/x", func(req *http.Request) { req.Header.Set("X-Pre-Expose", "X-Request-ID, ETag") })
	if v := got.Get("Access-Control-Expose-Headers"); v != "X-Request-ID, ETag" {
		t.Fatalf("duplicate: got %q", v)
	}
}

func TestSecurityHeaders_NoStoreOnlyForTranscripts(t *testing.T) {
	r := securedRouter(SecurityOptions{
		NoStorePrefixes: []string{"/api/v1/sessions", "/api/v1/personas/"},
	})

	for _, p := range []string{"/api/v1/sessions/s1", "/api/v1/personas/rahul-mumbai-it/memory"} {
		h := get(r, p, nil)
		if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
			t.Fatalf("%s: missing cache headers: %#v", p, h)
		}
	}
	if h := get(r, "/api/v1/dashboard/sessions", nil); h.Get("Cache-Control") != "" {
		t.Fatalf("dashboard must stay cacheable, got %q", h.Get("Cache-Control"))
	}
}

func TestSecurityHeaders_SwaggerRelaxed(t *testing.T) {
	r := securedRouter(SecurityOptions{SwaggerPrefix: "/swagger/"})

	h := get(r, "/swagger/index.html", nil)
	if h.Get("Content-Security-Policy") != swaggerCSP || h.Get("X-Frame-Options") != "SAMEORIGIN" {
		t.Fatalf("swagger headers: %#v", h)
	}
	if h := get(r, "/api/v1/sessions", nil); h.Get("Content-Security-Policy") != apiCSP {
		t.Fatalf("api csp leaked: %q", h.Get("Content-Security-Policy"))
	}
}

func TestSecurityHeaders_PolicyAndHSTS(t *testing.T) {
	r := securedRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, EnablePolicy: true})

	h := get(r, "/ok", func(req *http.Request) { req.TLS = &tls.ConnectionState{} })
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("missing policy headers: %#v", h)
	}
	if got := h.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("hsts = %q", got)
	}

	h = get(r, "/ok", func(req *http.Request) { req.Header.Set("X-Forwarded-Proto", "https") })
	if !strings.HasPrefix(h.Get("Strict-Transport-Security"), "max-age=86400") {
		t.Fatalf("hsts via proxy = %q", h.Get("Strict-Transport-Security"))
	}
	if h := get(r, "/ok", nil); h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("hsts on plain http")
	}

	def := securedRouter(SecurityOptions{EnableHSTS: true})
	h = get(def, "/ok", func(req *http.Request) { req.TLS = &tls.ConnectionState{} })
	if !strings.HasPrefix(h.Get("Strict-Transport-Security"), "max-age=15552000;") {
		t.Fatalf("default hsts = %q", h.Get("Strict-Transport-Security"))
	}
}
