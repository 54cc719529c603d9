package mercadopago

import (
	"context"
	"log"
	"net/http"
	"net/url"
)

// Payer identifies who pays. Identification is the Brazilian CPF when known.
type Payer struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// PaymentRequest creates a direct payment (e.g. Pix). ExternalReference links
// the provider-side transaction back to the local evaluation.
type PaymentRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	PaymentMethodID   string  `json:"payment_method_id"`
	Payer             Payer   `json:"payer"`
	NotificationURL   string  `json:"notification_url,omitempty"`
	ExternalReference string  `json:"external_reference,omitempty"`
}

type Payment struct {
	ID                 int64               `json:"id"`
	Status             string              `json:"status"`
	StatusDetail       string              `json:"status_detail"`
	ExternalReference  string              `json:"external_reference"`
	TransactionAmount  float64             `json:"transaction_amount"`
	PaymentMethodID    string              `json:"payment_method_id"`
	PointOfInteraction *PointOfInteraction `json:"point_of_interaction,omitempty"`
}

type PointOfInteraction struct {
	TransactionData *TransactionData `json:"transaction_data,omitempty"`
}

// TransactionData carries the Pix artifacts: the copy-paste code and a
// base64-rendered QR image.
type TransactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	TicketURL    string `json:"ticket_url"`
}

func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error) {
	var out Payment
	log.Printf("[MP] create payment method=%s amount=%.2f external_reference=%s", req.PaymentMethodID, req.TransactionAmount, req.ExternalReference)
	if err := c.do(ctx, http.MethodPost, "/v1/payments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPayment fetches the authoritative transaction state. Webhook handling
// never trusts a notification body; it always re-fetches by id.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var out Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
