// internal/commerce/client.go

// Package commerce talks to the commerce platform's draft-order API. Draft
// orders hold a priced cart; completing one places the order.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shop-assistant/internal/common/config"
	apperrors "shop-assistant/internal/common/errors"
	httpclient "shop-assistant/internal/common/http"
	"shop-assistant/internal/models"
)

type Client struct {
	baseURL    string
	apiToken   string
	currency   string
	httpClient *httpclient.Client
}

// DraftOrder is the priced cart returned by the platform.
type DraftOrder struct {
	ID       string  `json:"id"`
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// Order is a completed draft order.
type Order struct {
	ID          string  `json:"id"`
	OrderNumber string  `json:"order_number"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
}

type draftOrderRequest struct {
	LineItems       []draftLineItem `json:"line_items"`
	ShippingAddress *models.Address `json:"shipping_address,omitempty"`
	Currency        string          `json:"currency"`
}

type draftLineItem struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func NewClient(cfg config.CommerceConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiToken:   cfg.APIToken,
		currency:   cfg.Currency,
		httpClient: httpclient.NewClient(timeout),
	}
}

// CreateDraftOrder prices the cart on the platform and returns the draft
// order with computed shipping and tax.
func (c *Client) CreateDraftOrder(ctx context.Context, items []models.CartItem, address *models.Address) (*DraftOrder, error) {
	lineItems := make([]draftLineItem, 0, len(items))
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		lineItems = append(lineItems, draftLineItem{VariantID: item.VariantID, Quantity: qty})
	}

	payload := draftOrderRequest{
		LineItems:       lineItems,
		ShippingAddress: address,
		Currency:        c.currency,
	}

	var draft DraftOrder
	if err := c.post(ctx, "/draft_orders", payload, &draft); err != nil {
		return nil, apperrors.NewDraftOrderFailedError(err)
	}
	if draft.Currency == "" {
		draft.Currency = c.currency
	}
	return &draft, nil
}

// CompleteDraftOrder converts a draft order into a placed order.
func (c *Client) CompleteDraftOrder(ctx context.Context, draftOrderID string) (*Order, error) {
	var order Order
	path := fmt.Sprintf("/draft_orders/%s/complete", draftOrderID)
	if err := c.post(ctx, path, struct{}{}, &order); err != nil {
		return nil, apperrors.NewOrderPlacementFailedError(err)
	}
	if order.Currency == "" {
		order.Currency = c.currency
	}
	return &order, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("commerce call failed (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
