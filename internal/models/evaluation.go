package models

import (
	"time"

	"gorm.io/gorm"
)

// Evaluation is a vehicle valuation request. PaymentStatus gates report
// generation: the AI report may be produced iff the status is approved.
// The row is mutated only by the payment reconciler after creation.
type Evaluation struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	VehicleData   string         `gorm:"type:text;not null" json:"vehicle_data"` // JSON payload from the submission form
	AIResponse    string         `gorm:"type:text" json:"ai_response"`           // JSON, empty until the report is generated
	PaymentStatus string         `gorm:"size:20;not null;default:'pending';index" json:"payment_status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}
