package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.mercadopago.com"

// API is the slice of the Mercado Pago REST API this service uses. Handlers
// receive it as an injected collaborator so tests can substitute a fake
// without touching process globals.
type API interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	GetMerchantOrder(ctx context.Context, id string) (*MerchantOrder, error)
}

// Client talks to the Mercado Pago REST API with a bounded timeout.
type Client struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

func NewClient(accessToken, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		accessToken: accessToken,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
	}
}

// do performs a request and decodes the JSON response into out. POST requests
// carry an X-Idempotency-Key as the API requires.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost {
		req.Header.Set("X-Idempotency-Key", uuid.New().String())
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("[MP] %s %s status=%d body=%s", method, path, resp.StatusCode, string(respBody))
		return fmt.Errorf("mercadopago: %s %s: %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("mercadopago: decode %s: %w", path, err)
	}
	return nil
}
