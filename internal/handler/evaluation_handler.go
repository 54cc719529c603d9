package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"autovalor/internal/middleware"
	"autovalor/internal/models"
	"autovalor/internal/repository"
	"autovalor/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EvaluationHandler struct {
	evalRepo     *repository.EvaluationRepository
	valuationSvc *service.ValuationService
}

func NewEvaluationHandler(evalRepo *repository.EvaluationRepository, valuationSvc *service.ValuationService) *EvaluationHandler {
	return &EvaluationHandler{evalRepo: evalRepo, valuationSvc: valuationSvc}
}

// Create stores a vehicle submission with payment_status=pending. The report
// stays locked until the payment reconciler approves the evaluation.
func (h *EvaluationHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var vehicle models.VehicleData
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := json.Marshal(vehicle)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle data"})
		return
	}
	ev := &models.Evaluation{
		UserID:      userID,
		VehicleData: string(data),
	}
	if err := h.evalRepo.Create(ev); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save evaluation"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"evaluation_id":  ev.ID,
		"payment_status": ev.PaymentStatus,
	})
}

func (h *EvaluationHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid evaluation id"})
		return
	}
	ev, err := h.evalRepo.GetByIDForUser(uint(id), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "evaluation not found"})
		return
	}
	resp := gin.H{
		"id":             ev.ID,
		"payment_status": ev.PaymentStatus,
		"vehicle_data":   json.RawMessage(ev.VehicleData),
		"created_at":     ev.CreatedAt,
	}
	if ev.AIResponse != "" {
		resp["ai_response"] = json.RawMessage(ev.AIResponse)
	}
	c.JSON(http.StatusOK, resp)
}

// Generate produces the AI valuation report. Returns 402 until the
// evaluation's payment is approved.
func (h *EvaluationHandler) Generate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid evaluation id"})
		return
	}
	report, err := h.valuationSvc.GenerateReport(c.Request.Context(), uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "evaluation not found"})
		case errors.Is(err, service.ErrPaymentRequired):
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error":   "payment required",
				"details": "Você precisa realizar o pagamento para ver a avaliação.",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate valuation", "details": err.Error()})
		}
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", report)
}
