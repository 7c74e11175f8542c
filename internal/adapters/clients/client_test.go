package clients

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
)

func testClientConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "posts-service",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Minute,
			HalfOpenLimit: 1,
		},
	}
}

// statusSequence answers with codes in order, repeating the last one.
func statusSequence(t *testing.T, calls *atomic.Int32, codes ...int) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1)) - 1
		w.WriteHeader(codes[min(n, len(codes)-1)])
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()

	c, err := New(cfg)
	require.NoError(t, err)

	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	cfg := testClientConfig("http://localhost")
	cfg.ServiceName = ""
	_, err = New(cfg)
	require.ErrorContains(t, err, "service name is required")
}

func TestNew_TrimsBaseURL(t *testing.T) {
	c := newTestClient(t, testClientConfig("https://jsonplaceholder.typicode.com/"))

	assert.Equal(t, "https://jsonplaceholder.typicode.com/posts", c.url("/posts"))
	assert.Equal(t, "https://jsonplaceholder.typicode.com/posts/1", c.url("posts/1"))
	assert.Equal(t, "posts-service", c.ServiceName())
	assert.Equal(t, StateClosed, c.CircuitState())
}

func TestNewTransport(t *testing.T) {
	tr := newTransport(config.TransportConfig{})
	assert.Equal(t, config.DefaultTransportMaxIdleConns, tr.MaxIdleConns)
	assert.Equal(t, config.DefaultTransportMaxIdleConnsPerHost, tr.MaxIdleConnsPerHost)
	assert.Equal(t, config.DefaultTransportIdleConnTimeout, tr.IdleConnTimeout)

	tr = newTransport(config.TransportConfig{MaxIdleConns: 7, MaxIdleConnsPerHost: 3, IdleConnTimeout: time.Second})
	assert.Equal(t, 7, tr.MaxIdleConns)
	assert.Equal(t, 3, tr.MaxIdleConnsPerHost)
	assert.Equal(t, time.Second, tr.IdleConnTimeout)
}

func TestClient_Get(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = io.WriteString(w, `[{"id":1}]`)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, testClientConfig(srv.URL)).Get(context.Background(), "/posts")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "/posts", path)
	assert.JSONEq(t, `[{"id":1}]`, string(body))
}

func TestClient_ForwardsIDs(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := middleware.ContextWithRequestID(context.Background(), "req-1")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-1")

	resp, err := newTestClient(t, testClientConfig(srv.URL)).Get(ctx, "/posts")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "req-1", got.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-1", got.Get(middleware.HeaderCorrelationID))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := statusSequence(t, &calls, http.StatusBadGateway, http.StatusTooManyRequests, http.StatusOK)

	resp, err := newTestClient(t, testClientConfig(srv.URL)).Get(context.Background(), "/posts")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ReturnsClientErrorsWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := statusSequence(t, &calls, http.StatusNotFound)

	resp, err := newTestClient(t, testClientConfig(srv.URL)).Get(context.Background(), "/posts/9")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := statusSequence(t, &calls, http.StatusServiceUnavailable)

	_, err := newTestClient(t, testClientConfig(srv.URL)).Get(context.Background(), "/posts")
	require.ErrorIs(t, err, ErrMaxRetriesExceeded)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RetriesConnectionErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, testClientConfig(url)).Get(context.Background(), "/posts")
	require.ErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestClient_PostJSONReplaysBody(t *testing.T) {
	var calls atomic.Int32
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	payload := map[string]any{"title": "Stay hungry", "body": "Motivation", "userId": 1}
	resp, err := newTestClient(t, testClientConfig(srv.URL)).PostJSON(context.Background(), "/posts", payload)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.JSONEq(t, `{"title":"Stay hungry","body":"Motivation","userId":1}`, bodies[1])
}

func TestReplay_RequiresGetBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("x"))
	req.GetBody = nil

	_, err := replay(context.Background(), req, 1)
	require.NoError(t, err)

	_, err = replay(context.Background(), req, 2)
	require.ErrorContains(t, err, "cannot be replayed")
}

func TestClient_CircuitOpensAndFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := statusSequence(t, &calls, http.StatusInternalServerError)

	cfg := testClientConfig(srv.URL)
	cfg.Retry.MaxAttempts = 1
	cfg.Circuit.MaxFailures = 2
	c := newTestClient(t, cfg)

	for range 2 {
		_, err := c.Get(context.Background(), "/posts")
		require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	}
	require.Equal(t, StateOpen, c.CircuitState())

	_, err := c.Get(context.Background(), "/posts")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_CanceledCallDoesNotTripBreaker(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	cfg := testClientConfig(srv.URL)
	cfg.Circuit.MaxFailures = 1
	c := newTestClient(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/posts")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "deadline"))
	assert.Equal(t, StateClosed, c.CircuitState())
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Code: http.StatusBadGateway}
	assert.Equal(t, "remote answered 502", err.Error())
}
