package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/adapters/config"
	"pulse/pkg/errors"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.PricesConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Symbol:  "BTC",
		Timeout: time.Second,
	})
}

func TestClient_ClosingPrice(t *testing.T) {
	day := time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/close", r.URL.Path)
		assert.Equal(t, "2023-06-10", r.URL.Query().Get("date"))
		assert.Equal(t, "BTC", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"BTC","date":"2023-06-10","close":26754.12}`))
	}))
	defer srv.Close()

	price, err := newTestClient(srv.URL).ClosingPrice(context.Background(), day)

	require.NoError(t, err)
	assert.Equal(t, "26754.12", price.String())
}

func TestClient_ClosingPrice_QuotedClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTC","date":"2023-06-10","close":"25901.55"}`))
	}))
	defer srv.Close()

	price, err := newTestClient(srv.URL).ClosingPrice(context.Background(), time.Now().UTC())

	require.NoError(t, err)
	assert.Equal(t, "25901.55", price.String())
}

func TestClient_ClosingPrice_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ClosingPrice(context.Background(), time.Now().UTC())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPriceUnavailable))
}

func TestClient_ClosingPrice_EmptyClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTC","date":"2023-06-10"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ClosingPrice(context.Background(), time.Now().UTC())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPriceUnavailable))
}

func TestClient_ClosingPrice_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ClosingPrice(context.Background(), time.Now().UTC())

	require.Error(t, err)
	// A transport-level failure is not a missing-data failure
	assert.False(t, errors.Is(err, errors.ErrPriceUnavailable))
	assert.Contains(t, err.Error(), "502")
}

func TestClient_ClosingPrice_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := newTestClient(srv.URL).ClosingPrice(context.Background(), time.Now().UTC())

	require.Error(t, err)
	assert.False(t, errors.Is(err, errors.ErrPriceUnavailable))
}
