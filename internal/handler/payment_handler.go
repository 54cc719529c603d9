package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"autovalor/config"
	"autovalor/internal/domain"
	"autovalor/internal/middleware"
	"autovalor/internal/models"
	"autovalor/internal/repository"
	"autovalor/pkg/mercadopago"

	"github.com/gin-gonic/gin"
)

// PaymentHandler creates payment intents and serves the polling read. Each
// call to Checkout or StartPix inserts a fresh pending Payment row before
// returning, so the client holds a local handle even if the provider never
// calls back. Retrying simply produces another attempt; that is expected.
type PaymentHandler struct {
	cfg         *config.Config
	userRepo    *repository.UserRepository
	evalRepo    *repository.EvaluationRepository
	paymentRepo *repository.PaymentRepository
	auditRepo   *repository.AuditLogRepository
	mp          mercadopago.API
}

func NewPaymentHandler(
	cfg *config.Config,
	userRepo *repository.UserRepository,
	evalRepo *repository.EvaluationRepository,
	paymentRepo *repository.PaymentRepository,
	auditRepo *repository.AuditLogRepository,
	mp mercadopago.API,
) *PaymentHandler {
	return &PaymentHandler{
		cfg:         cfg,
		userRepo:    userRepo,
		evalRepo:    evalRepo,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		mp:          mp,
	}
}

type createIntentRequest struct {
	EvaluationID uint `json:"evaluation_id" binding:"required"`
}

// Checkout creates a Checkout Pro preference and returns the redirect URL.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "evaluation_id is required"})
		return
	}
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if user.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile has no email for the payer"})
		return
	}
	ev, err := h.evalRepo.GetByIDForUser(req.EvaluationID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "evaluation not found"})
		return
	}

	title := h.cfg.Valuation.Title
	var vehicle models.VehicleData
	if json.Unmarshal([]byte(ev.VehicleData), &vehicle) == nil && vehicle.Marca != "" {
		title = vehicle.Title()
	}

	extRef := strconv.FormatUint(uint64(ev.ID), 10)
	amount := float64(h.cfg.Valuation.AmountCents) / 100
	base := h.cfg.Server.PublicURL
	payer := &mercadopago.PreferencePayer{
		Email:   user.Email,
		Name:    user.FirstName(),
		Surname: user.LastName(),
	}
	if user.CPF != "" {
		payer.Identification = &mercadopago.Identification{Type: "CPF", Number: user.CPF}
	}
	pref, err := h.mp.CreatePreference(c.Request.Context(), mercadopago.PreferenceRequest{
		Items: []mercadopago.Item{{
			ID:         extRef,
			Title:      title,
			Quantity:   1,
			UnitPrice:  amount,
			CurrencyID: h.cfg.Valuation.Currency,
		}},
		Payer: payer,
		BackURLs: &mercadopago.BackURLs{
			Success: base + "/dashboard/results/" + extRef + "?status=approved",
			Failure: base + "/dashboard/evaluate?status=failure",
			Pending: base + "/dashboard/results/" + extRef + "?status=pending",
		},
		AutoReturn:        "approved",
		NotificationURL:   base + "/api/v1/payments/webhook",
		ExternalReference: extRef,
		Metadata: map[string]string{
			"vehicle_id": extRef,
			"user_id":    strconv.FormatUint(uint64(userID), 10),
		},
		PaymentMethods: &mercadopago.PaymentMethods{
			ExcludedPaymentTypes: []map[string]string{},
			Installments:         1,
		},
	})
	if err != nil {
		log.Printf("[payments] checkout preference failed evaluation=%d: %v", ev.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout", "details": err.Error()})
		return
	}

	pay := &models.Payment{
		UserID:        userID,
		VehicleID:     ev.ID,
		AmountCents:   h.cfg.Valuation.AmountCents,
		Currency:      h.cfg.Valuation.Currency,
		PaymentMethod: domain.PaymentMethodCheckoutPro,
		MercadoPagoID: pref.ID, // preference id; replaced by the payment id on reconciliation
	}
	if err := h.paymentRepo.Create(pay); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": pref.InitPoint, "payment_id": pay.ID})
}

// StartPix creates a direct Pix payment and returns the QR artifacts. The
// provider transaction id is known synchronously on this path.
func (h *PaymentHandler) StartPix(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "evaluation_id is required"})
		return
	}
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if user.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile has no email for the payer"})
		return
	}
	ev, err := h.evalRepo.GetByIDForUser(req.EvaluationID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "evaluation not found"})
		return
	}

	extRef := strconv.FormatUint(uint64(ev.ID), 10)
	payment, err := h.mp.CreatePayment(c.Request.Context(), mercadopago.PaymentRequest{
		TransactionAmount: float64(h.cfg.Valuation.AmountCents) / 100,
		Description:       h.cfg.Valuation.Title,
		PaymentMethodID:   "pix",
		Payer: mercadopago.Payer{
			Email:     user.Email,
			FirstName: user.FirstName(),
		},
		NotificationURL:   h.cfg.Server.PublicURL + "/api/v1/payments/webhook",
		ExternalReference: extRef,
	})
	if err != nil {
		log.Printf("[payments] pix create failed evaluation=%d: %v", ev.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create payment", "details": err.Error()})
		return
	}

	var qrCode, qrCodeBase64 string
	if payment.PointOfInteraction != nil && payment.PointOfInteraction.TransactionData != nil {
		qrCode = payment.PointOfInteraction.TransactionData.QRCode
		qrCodeBase64 = payment.PointOfInteraction.TransactionData.QRCodeBase64
	}
	mpID := strconv.FormatInt(payment.ID, 10)
	pay := &models.Payment{
		UserID:        userID,
		VehicleID:     ev.ID,
		AmountCents:   h.cfg.Valuation.AmountCents,
		Currency:      h.cfg.Valuation.Currency,
		PaymentMethod: domain.PaymentMethodPix,
		MercadoPagoID: mpID,
		QRCode:        qrCode,
		QRCodeBase64:  qrCodeBase64,
	}
	if err := h.paymentRepo.Create(pay); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payment_id":     pay.ID,
		"qr_code":        qrCode,
		"qr_code_base64": qrCodeBase64,
		"mp_id":          mpID,
	})
}

// Status is the polling read used while the user pays externally (the Pix
// flow has no redirect back). Pure read, owner-scoped.
func (h *PaymentHandler) Status(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}
	p, err := h.paymentRepo.GetByIDForUser(uint(id), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": p.Status})
}

type devApproveRequest struct {
	PaymentID uint `json:"payment_id" binding:"required"`
}

// DevApprove force-approves the caller's own payment to unblock local
// testing without a provider sandbox. Mutates the same fields the reconciler
// would. Unconditionally disabled in production builds.
func (h *PaymentHandler) DevApprove(c *gin.Context) {
	if h.cfg.Server.Env == "production" {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed in production"})
		return
	}
	userID := middleware.GetUserID(c)
	var req devApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_id is required"})
		return
	}
	p, err := h.paymentRepo.GetByIDForUser(req.PaymentID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	// Same guard the reconciler applies: at most one approved payment per
	// evaluation, even when a later attempt is force-approved.
	alreadyPaid, err := h.paymentRepo.HasApproved(p.VehicleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve payment"})
		return
	}
	if !alreadyPaid {
		if _, err := h.paymentRepo.MarkApproved(p.ID, p.MercadoPagoID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve payment"})
			return
		}
	}
	if _, err := h.evalRepo.Approve(p.VehicleID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unlock evaluation"})
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &userID,
		Action:     "payment_dev_approved",
		Resource:   "payment",
		ResourceID: strconv.FormatUint(uint64(p.ID), 10),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}
