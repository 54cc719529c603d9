package handler

import (
	"net/http"
	"strconv"

	"autovalor/internal/middleware"
	"autovalor/internal/repository"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	userRepo         *repository.UserRepository
	evalRepo         *repository.EvaluationRepository
	paymentRepo      *repository.PaymentRepository
	notificationRepo *repository.NotificationRepository
}

func NewMeHandler(userRepo *repository.UserRepository, evalRepo *repository.EvaluationRepository, paymentRepo *repository.PaymentRepository, notificationRepo *repository.NotificationRepository) *MeHandler {
	return &MeHandler{userRepo: userRepo, evalRepo: evalRepo, paymentRepo: paymentRepo, notificationRepo: notificationRepo}
}

func (h *MeHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *MeHandler) ListEvaluations(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.evalRepo.ListByUser(userID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list evaluations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluations": list})
}

func (h *MeHandler) ListPayments(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.paymentRepo.ListByUser(userID, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": list})
}

func (h *MeHandler) ListNotifications(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.notificationRepo.ListByUser(userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *MeHandler) MarkNotificationRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := h.notificationRepo.MarkRead(uint(id), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
