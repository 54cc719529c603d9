package mercadopago

import (
	"context"
	"net/http"
	"net/url"
)

// MerchantOrder aggregates the payments behind a checkout preference. Its
// order_status is "paid" once the order is fully covered. Order-level data is
// an approximation; the parallel per-payment notification carries the
// authoritative signal.
type MerchantOrder struct {
	ID                int64                  `json:"id"`
	OrderStatus       string                 `json:"order_status"`
	ExternalReference string                 `json:"external_reference"`
	Payments          []MerchantOrderPayment `json:"payments"`
}

type MerchantOrderPayment struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func (c *Client) GetMerchantOrder(ctx context.Context, id string) (*MerchantOrder, error) {
	var out MerchantOrder
	if err := c.do(ctx, http.MethodGet, "/merchant_orders/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
