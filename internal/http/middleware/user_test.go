package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestUserIdentity_Resolution(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		preset   string
		header   string
		want     string
		fallback bool
	}{
		{name: "header", header: " u7 ", want: "u7"},
		{name: "fallback", want: "guest", fallback: true},
		{name: "upstream wins", preset: "auth-user", header: "u7", want: "auth-user"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			if tc.preset != "" {
				r.Use(func(c *gin.Context) { c.Set(CtxKeyUserID, tc.preset); c.Next() })
			}
			r.Use(UserIdentity("guest"))
			r.GET("/", func(c *gin.Context) {
				if got := UserIDFrom(c); got != tc.want {
					t.Fatalf("user = %q, want %q", got, tc.want)
				}
				if isFallbackUser(c) != tc.fallback {
					t.Fatalf("fallback flag = %v, want %v", isFallbackUser(c), tc.fallback)
				}
				c.Status(http.StatusNoContent)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(HeaderUserID, tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != http.StatusNoContent {
				t.Fatalf("expected 204, got %d", w.Code)
			}
		})
	}
}

func TestKeyByUserOrIP_FallbackUserKeyedByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(UserIdentity("anonymous"))
	var key string
	r.GET("/", func(c *gin.Context) {
		key = KeyByUserOrIP()(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	r.ServeHTTP(w, req)
	if key != "ip:203.0.113.9" {
		t.Fatalf("expected ip key for anonymous caller, got %q", key)
	}
}
