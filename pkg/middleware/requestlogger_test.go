package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/leogadddd/ordura-v2/pkg/logger"
)

// requestLoggerLine runs one request through RequestLogger, has the handler
// log a line via the context logger, and returns the decoded line.
func requestLoggerLine(t *testing.T, prepare func(*http.Request) *http.Request) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	base := logger.NewWithWriter("pos-backend", "info", &buf)

	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if prepare != nil {
		req = prepare(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotZero(t, buf.Len(), "handler should have logged through the context logger")
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestRequestLogger_IncludesCorrelationID(t *testing.T) {
	out := requestLoggerLine(t, func(r *http.Request) *http.Request {
		return r.WithContext(logger.WithCorrelationID(r.Context(), "corr-test-123"))
	})
	assert.Equal(t, "corr-test-123", out["correlation_id"])
}

func TestRequestLogger_UserIDFromAuthContext(t *testing.T) {
	out := requestLoggerLine(t, func(r *http.Request) *http.Request {
		return r.WithContext(context.WithValue(r.Context(), userIDKey, "user-from-auth"))
	})
	assert.Equal(t, "user-from-auth", out["user_id"])
}

func TestRequestLogger_UserIDFromHeader(t *testing.T) {
	out := requestLoggerLine(t, func(r *http.Request) *http.Request {
		r.Header.Set("X-User-ID", "user-from-header")
		return r
	})
	assert.Equal(t, "user-from-header", out["user_id"])
}

func TestRequestLogger_AuthContextBeatsHeader(t *testing.T) {
	out := requestLoggerLine(t, func(r *http.Request) *http.Request {
		r.Header.Set("X-User-ID", "header-user")
		return r.WithContext(context.WithValue(r.Context(), userIDKey, "auth-user"))
	})
	assert.Equal(t, "auth-user", out["user_id"])
}

func TestRequestLogger_IncludesTraceIdentity(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	out := requestLoggerLine(t, func(r *http.Request) *http.Request {
		return r.WithContext(trace.ContextWithSpanContext(r.Context(), sc))
	})
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", out["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", out["span_id"])
}

func TestRequestLogger_OmitsAbsentIdentity(t *testing.T) {
	out := requestLoggerLine(t, nil)
	assert.NotContains(t, out, "user_id")
	assert.NotContains(t, out, "correlation_id")
}
