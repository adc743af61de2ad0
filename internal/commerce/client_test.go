// internal/commerce/client_test.go
package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-assistant/internal/common/config"
	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/models"
)

func newTestClient(url string) *Client {
	return NewClient(config.CommerceConfig{
		BaseURL:  url,
		APIToken: "test-token",
		Currency: "USD",
		Timeout:  2000,
	})
}

func TestCreateDraftOrder(t *testing.T) {
	var captured draftOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/draft_orders", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(DraftOrder{
			ID: "do-1", Subtotal: 200, Shipping: 10, Tax: 16, Total: 226, Currency: "USD",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	draft, err := client.CreateDraftOrder(context.Background(), []models.CartItem{
		{ProductID: "p1", VariantID: "v1", Quantity: 2},
		{ProductID: "p2", VariantID: "v2", Quantity: 0},
	}, &models.Address{Line1: "1 Main St", City: "Springfield", Zip: "12345", Country: "US"})

	require.NoError(t, err)
	assert.Equal(t, "do-1", draft.ID)
	assert.Equal(t, 226.0, draft.Total)

	require.Len(t, captured.LineItems, 2)
	assert.Equal(t, 2, captured.LineItems[0].Quantity)
	assert.Equal(t, 1, captured.LineItems[1].Quantity, "zero quantity defaults to one")
	assert.Equal(t, "USD", captured.Currency)
}

func TestCreateDraftOrder_PlatformErrorWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"variant not found"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateDraftOrder(context.Background(), []models.CartItem{{VariantID: "missing"}}, nil)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDraftOrderFailed, apperrors.CodeOf(err))
}

func TestCompleteDraftOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/draft_orders/do-1/complete", r.URL.Path)
		json.NewEncoder(w).Encode(Order{ID: "ord-9", OrderNumber: "1042", Total: 226})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	order, err := client.CompleteDraftOrder(context.Background(), "do-1")

	require.NoError(t, err)
	assert.Equal(t, "ord-9", order.ID)
	assert.Equal(t, "1042", order.OrderNumber)
	assert.Equal(t, "USD", order.Currency, "currency defaults from config when omitted")
}

func TestCompleteDraftOrder_FailureWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "payment declined", http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CompleteDraftOrder(context.Background(), "do-1")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeOrderPlacementFailed, apperrors.CodeOf(err))
}
