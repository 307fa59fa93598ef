package logger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCapturedRouter() (*gin.Engine, *bytes.Buffer) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/calls", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, &buf
}

func TestMiddleware_LogsRequestSummary(t *testing.T) {
	r, buf := newCapturedRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/calls", nil))

	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
	out := buf.String()
	if !strings.Contains(out, `"path":"/api/calls"`) || !strings.Contains(out, "client_ip") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestMiddleware_SkipsHealthProbes(t *testing.T) {
	r, buf := newCapturedRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no log output for health probe, got %s", buf.String())
	}
}
