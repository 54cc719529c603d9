package repository

import (
	"time"

	"autovalor/internal/domain"
	"autovalor/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository persists payment attempts. Status transitions are
// conditional writes guarded on the current status so that duplicate or
// out-of-order webhook deliveries converge instead of corrupting rows.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByIDForUser(id, userID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListByUser(userID uint, limit int) ([]models.Payment, error) {
	var list []models.Payment
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

// LatestPendingByVehicle returns the most recent pending attempt for an
// evaluation, or gorm.ErrRecordNotFound when every attempt is settled.
func (r *PaymentRepository) LatestPendingByVehicle(vehicleID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("vehicle_id = ? AND status = ?", vehicleID, domain.PaymentStatusPending).
		Order("created_at DESC, id DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// HasApproved reports whether any attempt for the evaluation already ended
// approved. Guards the at-most-one-approved-payment invariant on duplicate
// deliveries.
func (r *PaymentRepository) HasApproved(vehicleID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("vehicle_id = ? AND status = ?", vehicleID, domain.PaymentStatusApproved).
		Count(&count).Error
	return count > 0, err
}

// MarkApproved settles a pending attempt and attaches the provider id.
// Returns false when the row was already settled by a concurrent delivery.
func (r *PaymentRepository) MarkApproved(id uint, mercadoPagoID string) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      domain.PaymentStatusApproved,
		"approved_at": &now,
	}
	if mercadoPagoID != "" {
		updates["mercado_pago_id"] = mercadoPagoID
	}
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatusPending).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// MarkCancelled records a failed/cancelled outcome on a pending attempt.
func (r *PaymentRepository) MarkCancelled(id uint, mercadoPagoID string) (bool, error) {
	updates := map[string]interface{}{"status": domain.PaymentStatusCancelled}
	if mercadoPagoID != "" {
		updates["mercado_pago_id"] = mercadoPagoID
	}
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatusPending).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}
