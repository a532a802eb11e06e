package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/allot/pkg/observability"
)

type fixedStats outbox.Stats

func (s fixedStats) GetStats() outbox.Stats { return outbox.Stats(s) }

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthRouter_Healthz(t *testing.T) {
	router := newHealthRouter(fixedStats{
		IsRunning:             true,
		PublishedCount:        7,
		DeadCount:             1,
		PublishedByRoutingKey: map[string]uint64{"assignment.created": 7},
		LastError:             "channel closed",
	}, observability.NewHealthRegistry())

	rec := serve(t, router, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body relayStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Running)
	assert.Equal(t, uint64(7), body.Published)
	assert.Equal(t, uint64(1), body.Dead)
	assert.Equal(t, map[string]uint64{"assignment.created": 7}, body.ByEvent)
	assert.Equal(t, "channel closed", body.LastError)

	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, router, http.MethodPost, "/healthz").Code)
}

func TestHealthRouter_Readyz(t *testing.T) {
	registry := observability.NewHealthRegistry()
	var down atomic.Bool
	registry.Register("database", func(context.Context) observability.HealthCheckResult {
		if down.Load() {
			return observability.HealthCheckResult{Status: observability.HealthStatusUnhealthy, Message: "database is locked"}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})
	router := newHealthRouter(fixedStats{}, registry)

	assert.Equal(t, http.StatusOK, serve(t, router, http.MethodGet, "/readyz").Code)

	down.Store(true)
	rec := serve(t, router, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is locked")
}

type countingCleaner struct{ calls atomic.Int32 }

func (c *countingCleaner) Cleanup(context.Context) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestCleanupLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &countingCleaner{}
	done := make(chan struct{})
	go func() {
		cleanupLoop(ctx, c, time.Millisecond, observability.NewLogger(observability.LogConfig{Output: io.Discard}))
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done

	// A non-positive interval disables cleanup.
	cleanupLoop(context.Background(), c, 0, nil)
}
