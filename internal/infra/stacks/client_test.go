package stacks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	})
}

func TestContractSwaps_DecodesEnvelope(t *testing.T) {
	var gotQuery map[string]string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"contract_id": r.URL.Query().Get("contract_id"),
			"start_time":  r.URL.Query().Get("start_time"),
			"end_time":    r.URL.Query().Get("end_time"),
		}
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.Write([]byte(`{
			"status": "ok",
			"data": [{
				"tx_id": "0xabc",
				"user_address": "SP1AAA",
				"block_height": 42,
				"block_time": "2026-01-15T12:00:00Z",
				"swap_details": [{"in_asset": "stx", "in_amount": 10, "out_asset": "SP1.token-t::t", "out_amount": 5}]
			}]
		}`))
	})

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	txs, err := client.ContractSwaps(context.Background(), "SP1.token-t", start, end, 0)
	require.NoError(t, err)

	require.Len(t, txs, 1)
	assert.Equal(t, "0xabc", txs[0].TxID)
	assert.Equal(t, uint64(42), txs[0].BlockHeight)
	require.Len(t, txs[0].SwapDetails, 1)
	assert.Equal(t, "SP1.token-t::t", txs[0].SwapDetails[0].OutAsset)

	assert.Equal(t, "SP1.token-t", gotQuery["contract_id"])
	assert.Equal(t, "2026-01-01T00:00:00Z", gotQuery["start_time"])
	assert.Equal(t, "2026-02-01T00:00:00Z", gotQuery["end_time"])
}

func TestContractSwaps_OpenWindowOmitsParams(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("start_time"))
		assert.False(t, r.URL.Query().Has("end_time"))
		w.Write([]byte(`{"status": "ok", "data": []}`))
	})

	_, err := client.ContractSwaps(context.Background(), "SP1.token-t", time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var attempts int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status": "ok", "data": []}`))
	})

	txs, err := client.RecentSwaps(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var attempts int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.RecentSwaps(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	var reqErr *RequestFailedError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "swaps/recent", reqErr.Endpoint)
	assert.Equal(t, 3, reqErr.Attempts)
}

func TestTokenTransfers_NullDataIsEmpty(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SP1AAA", r.URL.Query().Get("address"))
		assert.Equal(t, "SP1.token-t", r.URL.Query().Get("asset_identifier"))
		w.Write([]byte(`{"status": "ok", "data": null}`))
	})

	txs, err := client.TokenTransfers(context.Background(), "SP1AAA", "SP1.token-t")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestLatestPrices_PostsAssetFilter(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"stx", "SP1.token-t"}, body["assets"])

		w.Write([]byte(`{"status": "ok", "data": {"stx": 1.5, "SP1.token-t": 0.02}}`))
	})

	prices, err := client.LatestPrices(context.Background(), "stx", "SP1.token-t")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"stx": 1.5, "SP1.token-t": 0.02}, prices)
}

func TestLatestPrices_EmptyFilterSendsNoAssets(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "assets")
		w.Write([]byte(`{"status": "ok", "data": {}}`))
	})

	prices, err := client.LatestPrices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prices)
}
