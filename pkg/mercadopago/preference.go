package mercadopago

import (
	"context"
	"log"
	"net/http"
)

// PreferenceRequest creates a Checkout Pro preference: the hosted redirect
// flow. ExternalReference must carry the evaluation id so the webhook can map
// the eventual payment back to local records.
type PreferenceRequest struct {
	Items             []Item            `json:"items"`
	Payer             *PreferencePayer  `json:"payer,omitempty"`
	BackURLs          *BackURLs         `json:"back_urls,omitempty"`
	AutoReturn        string            `json:"auto_return,omitempty"`
	NotificationURL   string            `json:"notification_url,omitempty"`
	ExternalReference string            `json:"external_reference,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	PaymentMethods    *PaymentMethods   `json:"payment_methods,omitempty"`
}

type Item struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id,omitempty"`
}

type PreferencePayer struct {
	Email          string          `json:"email"`
	Name           string          `json:"name,omitempty"`
	Surname        string          `json:"surname,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PaymentMethods struct {
	ExcludedPaymentTypes []map[string]string `json:"excluded_payment_types"`
	Installments         int                 `json:"installments,omitempty"`
}

type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	var out Preference
	log.Printf("[MP] create preference external_reference=%s items=%d", req.ExternalReference, len(req.Items))
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
