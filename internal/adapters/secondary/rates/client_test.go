package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"github.com/molokoedovmp/anonpaysub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestClient(t *testing.T, sources ...string) *Client {
	t.Helper()
	joined := ""
	for i, s := range sources {
		if i > 0 {
			joined += ","
		}
		joined += s
	}
	cfg := &Config{
		Sources: joined,
		Symbol:  "RUB",
		Timeout: 500 * time.Millisecond,
	}
	return NewClient(cfg, testLogger()).(*Client)
}

func TestFetchRate_PrimarySource(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"rates":{"RUB":95.5}}`))
	}))
	defer primary.Close()

	client := newTestClient(t, primary.URL)

	rate, err := client.FetchRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 95.5, rate)
}

func TestFetchRate_FallbackOnError(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"rates":{"RUB":96.1}}`))
	}))
	defer fallback.Close()

	client := newTestClient(t, primary.URL, fallback.URL)

	rate, err := client.FetchRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 96.1, rate)
}

func TestFetchRate_FallbackOnInvalidRate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero rate", `{"rates":{"RUB":0}}`},
		{"negative rate", `{"rates":{"RUB":-3}}`},
		{"missing symbol", `{"rates":{"EUR":1.1}}`},
		{"malformed body", `{"rates":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer primary.Close()

			fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"rates":{"RUB":90}}`))
			}))
			defer fallback.Close()

			client := newTestClient(t, primary.URL, fallback.URL)

			rate, err := client.FetchRate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 90.0, rate)
		})
	}
}

func TestFetchRate_FallbackOnTimeout(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte(`{"rates":{"RUB":95}}`))
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"rates":{"RUB":97.2}}`))
	}))
	defer fallback.Close()

	client := newTestClient(t, primary.URL, fallback.URL)

	rate, err := client.FetchRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 97.2, rate)
}

func TestFetchRate_AllSourcesFailed(t *testing.T) {
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer second.Close()

	client := newTestClient(t, first.URL, second.URL)

	rate, err := client.FetchRate(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Zero(t, rate)
}
