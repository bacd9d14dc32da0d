package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leogadddd/ordura-v2/pkg/logger"
)

func TestRecovery_PanicBecomes500Envelope(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("pos-backend", "info", &buf)

	handler := Recovery(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil product row")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "an internal error occurred", body["message"])
	assert.NotContains(t, rr.Body.String(), "nil product row")

	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "nil product row")
}

func TestRecovery_PassesThroughWithoutPanic(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("pos-backend", "warn", &buf)

	handler := Recovery(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/products/P000001", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, buf.Len())
}
