package trading

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineClient_PlaceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "7", r.Header.Get("X-User-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "BTC", req.Symbol)

		w.Write([]byte(`{
			"id": "o-1",
			"symbol": "BTC",
			"type": "market",
			"side": "buy",
			"quantity": 0.5,
			"status": "filled",
			"filled_quantity": 0.5,
			"filled_price": 50000.0
		}`))
	}))
	defer srv.Close()

	c := NewEngineClient(srv.URL, srv.Client())
	order, err := c.PlaceOrder(context.Background(), 7, OrderRequest{
		Symbol: "BTC", Type: "market", Side: "buy", Quantity: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "o-1", order.ID)
	assert.Equal(t, "filled", order.Status)
	require.NotNil(t, order.FilledPrice)
	assert.Equal(t, 50000.0, *order.FilledPrice)
}

func TestEngineClient_GetPortfolio_SnakeCaseFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/portfolio", r.URL.Path)
		w.Write([]byte(`{
			"balance": 10000,
			"equity": 9500.5,
			"used_margin": 2000,
			"margin_level": 475.025,
			"leverage": 10
		}`))
	}))
	defer srv.Close()

	c := NewEngineClient(srv.URL, srv.Client())
	p, err := c.GetPortfolio(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 9500.5, p.Equity)
	assert.Equal(t, 2000.0, p.UsedMargin)
	assert.Equal(t, 475.025, p.MarginLevel)
}

func TestEngineClient_ErrorStatusIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"insufficient balance"}`))
	}))
	defer srv.Close()

	c := NewEngineClient(srv.URL, srv.Client())
	_, err := c.PlaceOrder(context.Background(), 7, OrderRequest{Symbol: "BTC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient balance")
	assert.Contains(t, err.Error(), "400")
}
