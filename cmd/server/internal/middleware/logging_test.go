package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/agrisaathi/agriwaste/pkg/logger"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	_, err := logger.Init(logger.Config{Level: "debug", Environment: "test"})
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		if _, ok := c.Get("request_id"); !ok {
			t.Fatalf("request_id not set in context")
		}
		c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}

	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
}

func TestRequestLoggerSessionID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(requestLoggerWith(log))
	r.GET("/api/sessions/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/sess-42", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["session_id"] != "sess-42" {
		t.Errorf("session_id = %v, want sess-42", entry["session_id"])
	}

	// 非会话路由不应带 session_id
	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entry = nil
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if _, ok := entry["session_id"]; ok {
		t.Errorf("unexpected session_id on non-session route: %v", entry["session_id"])
	}
}
