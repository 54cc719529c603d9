package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaymentSendsIdempotencyKey(t *testing.T) {
	var gotAuth, gotIdem string
	var gotReq PaymentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		gotIdem = r.Header.Get("X-Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Payment{
			ID:     9001,
			Status: "pending",
			PointOfInteraction: &PointOfInteraction{
				TransactionData: &TransactionData{QRCode: "00020126pix", QRCodeBase64: "cXI="},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-token", srv.URL, 2*time.Second)
	p, err := c.CreatePayment(context.Background(), PaymentRequest{
		TransactionAmount: 9.90,
		PaymentMethodID:   "pix",
		Payer:             Payer{Email: "maria@example.com"},
		ExternalReference: "42",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 9001, p.ID)
	assert.Equal(t, "00020126pix", p.PointOfInteraction.TransactionData.QRCode)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.NotEmpty(t, gotIdem, "POSTs must carry an idempotency key")
	assert.Equal(t, "42", gotReq.ExternalReference)
	assert.Equal(t, "pix", gotReq.PaymentMethodID)
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/555", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("X-Idempotency-Key"))
		json.NewEncoder(w).Encode(Payment{ID: 555, Status: "approved", ExternalReference: "42"})
	}))
	defer srv.Close()

	c := NewClient("test-token", srv.URL, 2*time.Second)
	p, err := c.GetPayment(context.Background(), "555")
	require.NoError(t, err)
	assert.Equal(t, "approved", p.Status)
	assert.Equal(t, "42", p.ExternalReference)
}

func TestGetMerchantOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/merchant_orders/777", r.URL.Path)
		json.NewEncoder(w).Encode(MerchantOrder{ID: 777, OrderStatus: "paid", ExternalReference: "42"})
	}))
	defer srv.Close()

	c := NewClient("test-token", srv.URL, 2*time.Second)
	o, err := c.GetMerchantOrder(context.Background(), "777")
	require.NoError(t, err)
	assert.Equal(t, "paid", o.OrderStatus)
}

func TestCreatePreference(t *testing.T) {
	var gotReq PreferenceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Preference{ID: "pref-abc", InitPoint: "https://mp.example/redirect"})
	}))
	defer srv.Close()

	c := NewClient("test-token", srv.URL, 2*time.Second)
	pref, err := c.CreatePreference(context.Background(), PreferenceRequest{
		Items:             []Item{{ID: "42", Title: "Avaliação Fiat Uno", Quantity: 1, UnitPrice: 9.90}},
		ExternalReference: "42",
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-abc", pref.ID)
	assert.Equal(t, "https://mp.example/redirect", pref.InitPoint)
	assert.Equal(t, "42", gotReq.ExternalReference)
}

func TestErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-token", srv.URL, 2*time.Second)
	_, err := c.GetPayment(context.Background(), "555")
	assert.Error(t, err)
}
