package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAccessLoggerUsesRequestLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	access := AccessLogger()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/tea", nil)
	req = req.WithContext(WithLogger(req.Context(), logger))
	access.ServeHTTP(httptest.NewRecorder(), req)

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("expected status 418, got %v", fields["status"])
	}
	if fields["path"] != "/tea" {
		t.Fatalf("expected path /tea, got %v", fields["path"])
	}
	if _, ok := fields["duration"]; !ok {
		t.Fatal("expected duration field")
	}
}

func TestRequestLoggerFallsBackToRequestID(t *testing.T) {
	SetProjectID("")
	var traceID string
	handler := RequestLogger()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, "req-42"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if traceID != "req-42" {
		t.Fatalf("expected trace id req-42, got %q", traceID)
	}
}

func TestRequestLoggerUsesTraceparent(t *testing.T) {
	SetProjectID("demo-project")
	defer SetProjectID("")

	var traceID string
	handler := RequestLogger()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-ab42124a3c573678d4d8b21ba52df3bf-d21f7bc17caa5aba-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	want := "projects/demo-project/traces/ab42124a3c573678d4d8b21ba52df3bf"
	if traceID != want {
		t.Fatalf("expected %q, got %q", want, traceID)
	}
}

func TestLogErrorAppendsErrorField(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogError(ctx, "boom", context.Canceled, zap.String("step", "x"))

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["error"] != context.Canceled.Error() {
		t.Fatalf("expected error field, got %v", fields["error"])
	}
	if fields["step"] != "x" {
		t.Fatalf("expected step field, got %v", fields["step"])
	}
}

func TestLogAuditEvent(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogAuditEvent(ctx, AuditEvent{
		Action:       "publish",
		UserID:       "user-1",
		ResourceType: "repository",
		ResourceID:   "octocat/site",
		Result:       "success",
	})

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["audit.action"] != "publish" {
		t.Fatalf("unexpected action: %v", fields["audit.action"])
	}
	if fields["audit.resource_id"] != "octocat/site" {
		t.Fatalf("unexpected resource id: %v", fields["audit.resource_id"])
	}
}
