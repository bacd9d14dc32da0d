package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyCheck(context.Context) error { return nil }

func failingCheck(msg string) Checker {
	return func(context.Context) error { return errors.New(msg) }
}

// readyz runs the readiness handler and decodes its JSON body.
func readyz(t *testing.T, h *Handler) (int, Response) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	// Liveness ignores registered checks; a dead dependency must not
	// get the process restarted.
	h.RegisterCritical("postgres", failingCheck("connection refused"))

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", healthyCheck)
	h.RegisterNonCritical("kafka", healthyCheck)
	h.RegisterNonCritical("redis", healthyCheck)

	code, resp := readyz(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	for name, check := range resp.Checks {
		assert.Equal(t, StatusUp, check.Status, name)
	}
}

func TestReadiness_NoCheckersIsUp(t *testing.T) {
	code, resp := readyz(t, NewHandler())

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
}

func TestReadiness_CriticalDownIs503(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", failingCheck("connection refused"))
	h.RegisterNonCritical("kafka", healthyCheck)

	code, resp := readyz(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, StatusDown, resp.Checks["postgres"].Status)
	assert.True(t, resp.Checks["postgres"].Critical)
	assert.Equal(t, "connection refused", resp.Checks["postgres"].Error)
}

func TestReadiness_NonCriticalDownDegrades(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", healthyCheck)
	h.RegisterNonCritical("kafka", failingCheck("broker unreachable"))
	h.RegisterNonCritical("redis", failingCheck("redis down"))

	code, resp := readyz(t, h)

	// Degraded still serves traffic.
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusUp, resp.Checks["postgres"].Status)
	assert.Equal(t, StatusDown, resp.Checks["kafka"].Status)
	assert.False(t, resp.Checks["kafka"].Critical)
	assert.Equal(t, "broker unreachable", resp.Checks["kafka"].Error)
}

func TestReadiness_CriticalDownWinsOverDegraded(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", failingCheck("db down"))
	h.RegisterNonCritical("redis", failingCheck("redis down"))

	code, resp := readyz(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, resp.Status)
}

func TestRegister_DefaultsToCritical(t *testing.T) {
	h := NewHandler()
	h.Register("db", failingCheck("fail"))

	code, resp := readyz(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.True(t, resp.Checks["db"].Critical)
}

func TestRegister_LastRegistrationWins(t *testing.T) {
	h := NewHandler()
	h.Register("db", failingCheck("fail"))
	h.Register("db", healthyCheck)

	code, resp := readyz(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Checks["db"].Status)
}
