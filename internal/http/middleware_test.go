package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func corsRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestCORSWithoutOriginsWarns(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	router := corsRouter(corsMiddleware(nil, logger))

	if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("expected a warning about open origins, got %v", entry)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestCORSConfiguredOrigins(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	router := corsRouter(corsMiddleware([]string{"https://board.example"}, logger))
	if len(hook.Entries) != 0 {
		t.Fatalf("unexpected log entries %v", hook.Entries)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://board.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://board.example" || rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("unexpected cors headers %v", rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign origin status = %d, want 403", rec.Code)
	}
}
