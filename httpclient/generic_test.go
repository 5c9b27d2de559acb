package httpclient_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andyle182810/cryptoqa/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testQuote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestGetJSON_ReturnsTypedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "BTC", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(testQuote{Symbol: "BTC", Price: 65000.5})
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	quote, err := httpclient.GetJSON[testQuote](t.Context(), client, "/quotes",
		httpclient.WithQuery("symbol", "BTC"))

	require.NoError(t, err)
	require.Equal(t, "BTC", quote.Symbol)
	require.InDelta(t, 65000.5, quote.Price, 0.0001)
}

func TestPostJSON_SendsBodyAndReturnsTypedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, httpclient.ContentTypeJSON, r.Header.Get(httpclient.HeaderContentType))

		var input testQuote
		_ = json.NewDecoder(r.Body).Decode(&input)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(testQuote{Symbol: input.Symbol, Price: 1})
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	quote, err := httpclient.PostJSON[testQuote](t.Context(), client, "/quotes", testQuote{Symbol: "ETH", Price: 0})

	require.NoError(t, err)
	require.Equal(t, "ETH", quote.Symbol)
}

func TestPutJSON_SendsBodyAndReturnsTypedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(testQuote{Symbol: "SOL", Price: 150})
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	quote, err := httpclient.PutJSON[testQuote](t.Context(), client, "/quotes/sol", testQuote{Symbol: "SOL", Price: 150})

	require.NoError(t, err)
	require.Equal(t, "SOL", quote.Symbol)
}

func TestDeleteJSON_ReturnsTypedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"deleted":true}`))
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	result, err := httpclient.DeleteJSON[map[string]bool](t.Context(), client, "/quotes/sol")

	require.NoError(t, err)
	require.True(t, result["deleted"])
}

func TestGetJSON_ReturnsServiceErrorAfterRetries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":{"error_code":400,"error_message":"Invalid value for \"symbol\""}}`))
	}))
	defer server.Close()

	client := httpclient.New(server.URL, httpclient.WithSleeper(noSleep))

	_, err := httpclient.GetJSON[testQuote](t.Context(), client, "/quotes")

	require.ErrorIs(t, err, httpclient.ErrRetriesExhausted)

	svcErr, ok := httpclient.IsServiceError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
	require.Equal(t, 400, svcErr.ErrorCode)
	require.Equal(t, `Invalid value for "symbol"`, svcErr.Message)
}

func TestGetJSON_DecodeErrorIsReported(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol": 42}`))
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	_, err := httpclient.GetJSON[testQuote](t.Context(), client, "/quotes")

	require.ErrorIs(t, err, httpclient.ErrDecodeResponse)
}
