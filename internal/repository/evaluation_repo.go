package repository

import (
	"autovalor/internal/domain"
	"autovalor/internal/models"

	"gorm.io/gorm"
)

// EvaluationRepository persists evaluation requests. Methods without a user
// filter are reserved for the reconciliation path, where the caller is the
// payment provider rather than an end user; authenticated handlers must use
// the ForUser variants.
type EvaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

func (r *EvaluationRepository) Create(e *models.Evaluation) error {
	return r.db.Create(e).Error
}

func (r *EvaluationRepository) GetByID(id uint) (*models.Evaluation, error) {
	var e models.Evaluation
	err := r.db.First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EvaluationRepository) GetByIDForUser(id, userID uint) (*models.Evaluation, error) {
	var e models.Evaluation
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EvaluationRepository) ListByUser(userID uint, limit int) ([]models.Evaluation, error) {
	var list []models.Evaluation
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

// Approve flips payment_status to approved as a conditional write so that
// concurrent notifications for the same evaluation cannot interleave. Returns
// true only for the first transition; approving an already-approved
// evaluation is a no-op.
func (r *EvaluationRepository) Approve(id uint) (bool, error) {
	res := r.db.Model(&models.Evaluation{}).
		Where("id = ? AND payment_status <> ?", id, domain.PaymentStatusApproved).
		Update("payment_status", domain.PaymentStatusApproved)
	return res.RowsAffected > 0, res.Error
}

// SaveAIResponse stores the generated report JSON.
func (r *EvaluationRepository) SaveAIResponse(id uint, aiResponse string) error {
	return r.db.Model(&models.Evaluation{}).Where("id = ?", id).
		Update("ai_response", aiResponse).Error
}
