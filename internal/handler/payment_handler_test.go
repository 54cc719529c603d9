package handler

import (
	"net/http"
	"strconv"
	"testing"

	"autovalor/internal/domain"
	"autovalor/internal/models"
	"autovalor/pkg/mercadopago"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutCreatesPendingPayment(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "maria@example.com")
	ev := seedEvaluation(t, db, u.ID)
	mp := &fakeMercadoPago{preference: &mercadopago.Preference{
		ID:        "pref-abc",
		InitPoint: "https://www.mercadopago.com.br/checkout/v1/redirect?pref_id=pref-abc",
	}}
	r := newPaymentServer(db, mp, "development", u.ID)

	w := doJSON(t, r, http.MethodPost, "/api/v1/payments/checkout",
		map[string]interface{}{"evaluation_id": ev.ID})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, mp.preference.InitPoint, body["url"])
	assert.NotZero(t, body["payment_id"])

	ref := strconv.Itoa(int(ev.ID))
	require.NotNil(t, mp.lastPreferenceReq)
	assert.Equal(t, ref, mp.lastPreferenceReq.ExternalReference)
	assert.Equal(t, "http://localhost:8080/api/v1/payments/webhook", mp.lastPreferenceReq.NotificationURL)
	require.Len(t, mp.lastPreferenceReq.Items, 1)
	assert.InDelta(t, 9.90, mp.lastPreferenceReq.Items[0].UnitPrice, 0.001)
	assert.Equal(t, "Avaliação Fiat Uno", mp.lastPreferenceReq.Items[0].Title)

	var pay models.Payment
	require.NoError(t, db.Where("vehicle_id = ?", ev.ID).First(&pay).Error)
	assert.Equal(t, domain.PaymentStatusPending, pay.Status)
	assert.Equal(t, domain.PaymentMethodCheckoutPro, pay.PaymentMethod)
	assert.Equal(t, "pref-abc", pay.MercadoPagoID)
	assert.EqualValues(t, 990, pay.AmountCents)
}

func TestCheckoutRejectsForeignEvaluation(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "maria@example.com")
	intruder := seedUser(t, db, "joao@example.com")
	ev := seedEvaluation(t, db, owner.ID)
	mp := &fakeMercadoPago{preference: &mercadopago.Preference{ID: "pref-abc"}}
	r := newPaymentServer(db, mp, "development", intruder.ID)

	w := doJSON(t, r, http.MethodPost, "/api/v1/payments/checkout",
		map[string]interface{}{"evaluation_id": ev.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Nil(t, mp.lastPreferenceReq, "the provider must not be called for another user's evaluation")
}

func TestStartPixReturnsQRCode(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "maria@example.com")
	ev := seedEvaluation(t, db, u.ID)
	mp := &fakeMercadoPago{created: &mercadopago.Payment{
		ID:     9001,
		Status: "pending",
		PointOfInteraction: &mercadopago.PointOfInteraction{
			TransactionData: &mercadopago.TransactionData{
				QRCode:       "00020126580014br.gov.bcb.pix",
				QRCodeBase64: "aVFSY29kZQ==",
			},
		},
	}}
	r := newPaymentServer(db, mp, "development", u.ID)

	w := doJSON(t, r, http.MethodPost, "/api/v1/payments/start",
		map[string]interface{}{"evaluation_id": ev.ID})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "00020126580014br.gov.bcb.pix", body["qr_code"])
	assert.Equal(t, "aVFSY29kZQ==", body["qr_code_base64"])
	assert.Equal(t, "9001", body["mp_id"])

	ref := strconv.Itoa(int(ev.ID))
	require.NotNil(t, mp.lastPaymentReq)
	assert.Equal(t, "pix", mp.lastPaymentReq.PaymentMethodID)
	assert.Equal(t, ref, mp.lastPaymentReq.ExternalReference)
	assert.InDelta(t, 9.90, mp.lastPaymentReq.TransactionAmount, 0.001)

	var pay models.Payment
	require.NoError(t, db.Where("vehicle_id = ?", ev.ID).First(&pay).Error)
	assert.Equal(t, domain.PaymentStatusPending, pay.Status)
	assert.Equal(t, domain.PaymentMethodPix, pay.PaymentMethod)
	assert.Equal(t, "9001", pay.MercadoPagoID)
	assert.NotEmpty(t, pay.QRCode)
}

func TestStatusIsOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "maria@example.com")
	other := seedUser(t, db, "joao@example.com")
	ev := seedEvaluation(t, db, owner.ID)
	p := seedPendingPayment(t, db, owner.ID, ev.ID, "555")
	mp := &fakeMercadoPago{}

	asOwner := newPaymentServer(db, mp, "development", owner.ID)
	w := doJSON(t, asOwner, http.MethodGet, "/api/v1/payments/"+strconv.Itoa(int(p.ID))+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.PaymentStatusPending, decodeBody(t, w)["status"])

	asOther := newPaymentServer(db, mp, "development", other.ID)
	w = doJSON(t, asOther, http.MethodGet, "/api/v1/payments/"+strconv.Itoa(int(p.ID))+"/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDevApproveKeepsSecondAttemptPending(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "maria@example.com")
	ev := seedEvaluation(t, db, u.ID)
	p1 := seedPendingPayment(t, db, u.ID, ev.ID, "555")
	r := newPaymentServer(db, &fakeMercadoPago{}, "development", u.ID)

	w := doJSON(t, r, http.MethodPost, "/api/v1/payments/dev-approve",
		map[string]interface{}{"payment_id": p1.ID})
	require.Equal(t, http.StatusOK, w.Code)

	// A retry attempt opened after approval must never become a second
	// approved row, even when force-approved.
	p2 := seedPendingPayment(t, db, u.ID, ev.ID, "556")
	w = doJSON(t, r, http.MethodPost, "/api/v1/payments/dev-approve",
		map[string]interface{}{"payment_id": p2.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var approved int64
	require.NoError(t, db.Model(&models.Payment{}).
		Where("vehicle_id = ? AND status = ?", ev.ID, domain.PaymentStatusApproved).
		Count(&approved).Error)
	assert.EqualValues(t, 1, approved)

	var got models.Payment
	require.NoError(t, db.First(&got, p2.ID).Error)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)
}

func TestDevApproveBlockedInProduction(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "maria@example.com")
	ev := seedEvaluation(t, db, u.ID)
	p := seedPendingPayment(t, db, u.ID, ev.ID, "555")
	r := newPaymentServer(db, &fakeMercadoPago{}, "production", u.ID)

	w := doJSON(t, r, http.MethodPost, "/api/v1/payments/dev-approve",
		map[string]interface{}{"payment_id": p.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var got models.Payment
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)
}

func TestDevApproveUnlocksEvaluation(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "maria@example.com")
	ev := seedEvaluation(t, db, u.ID)
	p := seedPendingPayment(t, db, u.ID, ev.ID, "555")
	r := newPaymentServer(db, &fakeMercadoPago{}, "development", u.ID)

	w := doJSON(t, r, http.MethodPost, "/api/v1/payments/dev-approve",
		map[string]interface{}{"payment_id": p.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var gotPay models.Payment
	require.NoError(t, db.First(&gotPay, p.ID).Error)
	assert.Equal(t, domain.PaymentStatusApproved, gotPay.Status)

	var gotEval models.Evaluation
	require.NoError(t, db.First(&gotEval, ev.ID).Error)
	assert.Equal(t, domain.PaymentStatusApproved, gotEval.PaymentStatus)

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ?", "payment_dev_approved").
		Count(&audits).Error)
	assert.EqualValues(t, 1, audits)
}
