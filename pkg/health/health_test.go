package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestReadyEndpointGate(t *testing.T) {
	h := New()

	rec := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "service is not ready")

	h.SetReady(true)
	rec = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, rec.Code)

	h.SetReady(false)
	rec = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFailureThreshold(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	h.mu.RLock()
	c := h.readiness[0]
	h.mu.RUnlock()

	// Below the threshold the check still reports healthy.
	c.run(context.Background())
	c.run(context.Background())
	assert.Equal(t, http.StatusOK, probe(t, h.ReadyEndpoint).Code)

	c.run(context.Background())
	rec := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRecoveryAfterSuccess(t *testing.T) {
	h := New()
	fail := true
	h.AddLivenessCheck("flaky", time.Second, func(context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})

	h.mu.RLock()
	c := h.liveness[0]
	h.mu.RUnlock()

	for range failureThreshold {
		c.run(context.Background())
	}
	require.Equal(t, http.StatusServiceUnavailable, probe(t, h.LiveEndpoint).Code)

	fail = false
	c.run(context.Background())
	assert.Equal(t, http.StatusOK, probe(t, h.LiveEndpoint).Code)
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
