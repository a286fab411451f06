package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	client := New(cfg, zap.NewNop())
	client.sleep = func(context.Context, time.Duration) error { return nil }
	return client
}

func TestClientGetOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Vagas abertas</body></html>`))
	}))
	defer server.Close()

	client := newTestClient(t, Config{})
	response, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, response.Outcome)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, string(response.Body), "Vagas abertas")
}

func TestClientSpacesRequestsPerHost(t *testing.T) {
	var (
		mu    sync.Mutex
		times []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	interval := 150 * time.Millisecond
	client := newTestClient(t, Config{MinHostInterval: interval})

	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, times, 3)
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		assert.GreaterOrEqual(t, gap, interval-20*time.Millisecond,
			"request %d followed too quickly", i)
	}
}

func TestClientRetriesTransientStatus(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer server.Close()

	client := newTestClient(t, Config{MaxRetries: 3})
	response, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, response.Outcome)

	mu.Lock()
	assert.Equal(t, 3, calls)
	mu.Unlock()
}

func TestClientClassifiesBlocked(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		request Request
		want    Outcome
	}{
		{name: "forbidden", status: http.StatusForbidden, want: OutcomeBlocked},
		{name: "challenge page", status: http.StatusOK, body: "<html>Please verify you are human</html>", want: OutcomeBlocked},
		{name: "turnstile body", status: http.StatusOK, body: "cf-turnstile challenge", want: OutcomeBlocked},
		{name: "unauthorized default", status: http.StatusUnauthorized, want: OutcomeFailed},
		{name: "unauthorized opted in", status: http.StatusUnauthorized, request: Request{BlockedOnUnauthorized: true}, want: OutcomeBlocked},
		{name: "not found", status: http.StatusNotFound, want: OutcomeFailed},
		{name: "plain page", status: http.StatusOK, body: "<html>vagas</html>", want: OutcomeOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, Config{})
			request := tt.request
			request.URL = server.URL
			request.Method = http.MethodGet
			response, err := client.Do(context.Background(), request)
			require.NoError(t, err)
			assert.Equal(t, tt.want, response.Outcome)
			assert.Equal(t, tt.status, response.StatusCode)
		})
	}
}

func TestClientRateLimitedThenBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, Config{MaxRetries: 2})
	response, err := client.Do(context.Background(), Request{URL: server.URL, Method: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlocked, response.Outcome)
}

func TestClientPostSendsBody(t *testing.T) {
	var got []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"jobPostings": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, Config{})
	payload := []byte(`{"limit": 20, "offset": 0}`)
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	response, err := client.Do(context.Background(), Request{
		URL:     server.URL,
		Method:  http.MethodPost,
		Body:    payload,
		Headers: headers,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, response.Outcome)
	assert.Equal(t, payload, got)
}

func TestClientContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := newTestClient(t, Config{Timeout: 5 * time.Second})
	_, err := client.Do(ctx, Request{URL: server.URL, Method: http.MethodGet})
	require.Error(t, err)
}

func TestHostLimiterSeparateHosts(t *testing.T) {
	limiter := NewHostLimiter(500 * time.Millisecond)

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background(), "https://a.example.com/x"))
	require.NoError(t, limiter.Wait(context.Background(), "https://b.example.com/y"))
	assert.Less(t, time.Since(start), 200*time.Millisecond,
		"different hosts must not wait on each other")
}
