package service

import (
	"encoding/json"

	"autovalor/internal/models"
	"autovalor/internal/repository"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

func (s *NotificationService) NotifyPaymentApproved(userID uint, amountCents int64, reference string) error {
	return s.Notify(userID, "PAYMENT_APPROVED", "Payment confirmed", "Your payment was confirmed. Your valuation is being prepared.", map[string]interface{}{"amount_cents": amountCents, "reference": reference})
}

func (s *NotificationService) NotifyReportReady(userID, evaluationID uint) error {
	return s.Notify(userID, "REPORT_READY", "Valuation ready", "Your vehicle valuation report is ready.", map[string]interface{}{"evaluation_id": evaluationID})
}
