//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/metrics"
)

func newStack(t *testing.T, mutate func(*config.Config)) (*stack, *fakePosts) {
	t.Helper()

	remote := newFakePosts()
	t.Cleanup(remote.Close)

	cfg, err := stackConfig(t.TempDir(), remote.URL)
	require.NoError(t, err)

	if mutate != nil {
		mutate(cfg)
	}

	s, err := startStack(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.stop() })

	return s, remote
}

func syncNow(t *testing.T, s *stack, headers map[string]string) (int, dto.SyncResponse) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/api/v1/sync", nil)
	require.NoError(t, err)

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out dto.SyncResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}

	return resp.StatusCode, out
}

// TestSync_RetriesTransientFailures verifies the posts client retries a 503
// before the sync cycle gives up.
func TestSync_RetriesTransientFailures(t *testing.T) {
	s, remote := newStack(t, func(cfg *config.Config) {
		cfg.Client.Retry.MaxAttempts = 3
	})

	remote.setPosts("Third time lucky.")
	remote.failNext(2)

	status, result := syncNow(t, s, nil)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, metrics.OutcomeReplaced, result.Outcome)
	assert.Equal(t, 1, result.Count)
}

// TestSync_CircuitOpensAfterRepeatedFailures verifies that once the breaker
// opens, sync fails fast with 503 and the collection is untouched.
func TestSync_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	s, remote := newStack(t, func(cfg *config.Config) {
		cfg.Client.CircuitBreaker.MaxFailures = 2
		cfg.Client.CircuitBreaker.Timeout = time.Minute
	})

	remote.setDown(true)

	for range 2 {
		status, _ := syncNow(t, s, nil)
		require.Equal(t, http.StatusServiceUnavailable, status)
	}

	remote.setDown(false)
	remote.setPosts("Never fetched.")

	start := time.Now()
	status, _ := syncNow(t, s, nil)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 3, s.components.Store.Len())
}

// TestSync_PropagatesRequestHeaders verifies inbound request and correlation
// IDs reach the posts service.
func TestSync_PropagatesRequestHeaders(t *testing.T) {
	s, remote := newStack(t, nil)
	remote.setPosts("Traced.")

	status, _ := syncNow(t, s, map[string]string{
		middleware.HeaderRequestID:     "req-integration-123",
		middleware.HeaderCorrelationID: "corr-integration-456",
	})

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "req-integration-123", remote.header(middleware.HeaderRequestID))
	assert.Equal(t, "corr-integration-456", remote.header(middleware.HeaderCorrelationID))
}

// TestSync_PushesNewQuotes verifies added quotes are posted when push is on.
func TestSync_PushesNewQuotes(t *testing.T) {
	s, remote := newStack(t, func(cfg *config.Config) {
		cfg.Sync.PushEnabled = true
	})

	resp, _, err := s.do(http.MethodPost, "/api/v1/quotes", "application/json",
		strings.NewReader(`{"text":"Ship it.","category":"Work"}`), "")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, int32(1), remote.createdCount.Load())

	resp, body, err := s.do(http.MethodGet, "/api/v1/notifications/latest", "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Quote synced with server!")
}

// TestSync_PushFailureStillAddsLocally verifies a failing remote never blocks
// a local add.
func TestSync_PushFailureStillAddsLocally(t *testing.T) {
	s, remote := newStack(t, func(cfg *config.Config) {
		cfg.Sync.PushEnabled = true
	})
	remote.setDown(true)

	resp, _, err := s.do(http.MethodPost, "/api/v1/quotes", "application/json",
		strings.NewReader(`{"text":"Ship it.","category":"Work"}`), "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 4, s.components.Store.Len())
}

// TestSync_ScheduledCycle verifies the scheduler reconciles without a request.
func TestSync_ScheduledCycle(t *testing.T) {
	remote := newFakePosts()
	t.Cleanup(remote.Close)
	remote.setPosts("Scheduled.")

	cfg, err := stackConfig(t.TempDir(), remote.URL)
	require.NoError(t, err)
	cfg.Sync.Enabled = true
	cfg.Sync.Interval = time.Hour

	s, err := startStack(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.stop() })

	assert.Eventually(t, func() bool {
		return s.components.Store.Len() == 1
	}, 5*time.Second, 20*time.Millisecond)
}
