package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/config"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *gateway.HTTPGatewayClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return gateway.NewGatewayClient(config.GatewayConfig{
		BaseURL:     server.URL,
		SecretKey:   "sk_test_123",
		ConnTimeout: 5 * time.Second,
		SuccessURL:  "https://books.example.com/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   "https://books.example.com/dashboard/payment-cancelled",
	})
}

func TestHTTPGatewayClient_RetrieveCheckoutSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"id":             "cs_test_1",
			"payment_intent": "pi_123",
			"payment_status": "paid",
			"amount_total":   2599,
			"currency":       "usd",
			"customer_email": "reader@example.com",
			"metadata": map[string]string{
				"bookId":  "book-1",
				"orderId": "order-1",
			},
		})
	})

	session, err := client.RetrieveCheckoutSession(context.Background(), "cs_test_1")

	require.NoError(t, err)
	assert.Equal(t, "pi_123", session.TransactionID)
	assert.True(t, session.Paid())
	assert.Equal(t, int64(2599), session.AmountTotal)
	assert.Equal(t, "order-1", session.OrderID)
	assert.Equal(t, "book-1", session.BookID)
}

func TestHTTPGatewayClient_CreateCheckoutSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "payment", req["mode"])

		json.NewEncoder(w).Encode(map[string]any{
			"id":  "cs_test_2",
			"url": "https://checkout.example.com/c/cs_test_2",
		})
	})

	session, err := client.CreateCheckoutSession(context.Background(), application.CreateSessionRequest{
		AmountCents:   2599,
		Currency:      "usd",
		ProductName:   "The Go Programming Language",
		CustomerEmail: "reader@example.com",
		BookID:        "book-1",
		OrderID:       "order-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_2", session.ID)
	assert.Equal(t, "https://checkout.example.com/c/cs_test_2", session.URL)
}

func TestHTTPGatewayClient_SurfacesGatewayErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "resource_missing",
			"message": "No such checkout session",
		})
	})

	_, err := client.RetrieveCheckoutSession(context.Background(), "cs_missing")

	require.Error(t, err)
	gwErr, ok := gateway.IsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "resource_missing", gwErr.Code)
	assert.Equal(t, http.StatusNotFound, gwErr.StatusCode)
	assert.False(t, gwErr.IsRetryable())
}
