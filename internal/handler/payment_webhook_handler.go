package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"autovalor/internal/domain"
	"autovalor/internal/models"
	"autovalor/internal/repository"
	"autovalor/internal/service"
	"autovalor/pkg/mercadopago"

	"github.com/gin-gonic/gin"
)

// PaymentWebhookHandler receives Mercado Pago notifications. The notification
// body is never trusted for amount or status; the authoritative state is
// re-fetched from the provider by id. A notification is resolved once at this
// boundary into a canonical (external_reference, status) pair; the reconciler
// never sees provider-specific shapes.
type PaymentWebhookHandler struct {
	mp         mercadopago.API
	reconciler *service.ReconcileService
	auditRepo  *repository.AuditLogRepository
}

func NewPaymentWebhookHandler(mp mercadopago.API, reconciler *service.ReconcileService, auditRepo *repository.AuditLogRepository) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{mp: mp, reconciler: reconciler, auditRepo: auditRepo}
}

// providerNotification is the tagged variant behind the topic parameter.
type providerNotification interface {
	// resolve fetches authoritative provider state and returns the external
	// reference, the canonical status, and the provider payment id if known.
	resolve(ctx context.Context, api mercadopago.API) (ref, status, mercadoPagoID string, err error)
}

type paymentNotification struct{ id string }

func (n paymentNotification) resolve(ctx context.Context, api mercadopago.API) (string, string, string, error) {
	p, err := api.GetPayment(ctx, n.id)
	if err != nil {
		return "", "", "", err
	}
	mpID := n.id
	if p.ID != 0 {
		mpID = strconv.FormatInt(p.ID, 10)
	}
	return p.ExternalReference, domain.CanonicalPaymentStatus(p.Status), mpID, nil
}

type orderNotification struct{ id string }

func (n orderNotification) resolve(ctx context.Context, api mercadopago.API) (string, string, string, error) {
	o, err := api.GetMerchantOrder(ctx, n.id)
	if err != nil {
		return "", "", "", err
	}
	// Order-level aggregation is an approximation: "paid" is authoritative,
	// anything else waits for the per-payment notification the provider
	// sends in parallel.
	status := domain.PaymentStatusPending
	if o.OrderStatus == "paid" {
		status = domain.PaymentStatusApproved
	}
	return o.ExternalReference, status, "", nil
}

type webhookBody struct {
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// Handle acknowledges every notification it understood with
// {"received": true}, even when no local evaluation matched: provider retry
// cannot fix an unrecognized payload. Provider fetch or persistence failures
// return 500 so the provider's retry schedule acts as recovery.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	topic := c.Query("topic")
	if topic == "" {
		topic = c.Query("type")
	}
	id := c.Query("id")
	if id == "" {
		id = c.Query("data.id")
	}
	if id == "" {
		var body webhookBody
		if err := c.ShouldBindJSON(&body); err == nil {
			id = body.Data.ID.String()
		}
	}
	// Connectivity pings carry no id at all.
	if id == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var n providerNotification
	switch topic {
	case "payment":
		n = paymentNotification{id: id}
	case "merchant_order":
		n = orderNotification{id: id}
	default:
		log.Printf("[webhook] ignoring topic=%q id=%s", topic, id)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ref, status, mpID, err := n.resolve(c.Request.Context(), h.mp)
	if err != nil {
		log.Printf("[webhook] provider fetch failed topic=%s id=%s: %v", topic, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "provider lookup failed"})
		return
	}
	if ref == "" {
		log.Printf("[webhook] no external reference on topic=%s id=%s, acknowledging", topic, id)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	res, err := h.reconciler.Apply(ref, status, mpID)
	if err != nil {
		if errors.Is(err, service.ErrEvaluationNotFound) {
			log.Printf("[webhook] no evaluation for external_reference=%s (mp_id=%s), acknowledging", ref, mpID)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		log.Printf("[webhook] reconcile failed external_reference=%s mp_id=%s status=%s: %v", ref, mpID, status, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}
	if res.NewlyApproved {
		_ = h.auditRepo.Create(&models.AuditLog{
			Action:     "payment_approved",
			Resource:   "evaluation",
			ResourceID: ref,
			IP:         c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Metadata:   `{"mercado_pago_id":` + strconv.Quote(mpID) + `}`,
		})
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
