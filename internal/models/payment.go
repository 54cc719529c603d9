package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment is one attempt to pay for an evaluation. Several attempts may
// reference the same evaluation (user retries); at most one ends approved.
type Payment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	VehicleID     uint           `gorm:"not null;index" json:"vehicle_id"` // evaluation being paid for
	AmountCents   int64          `gorm:"not null" json:"amount_cents"`
	Currency      string         `gorm:"size:3;default:'BRL'" json:"currency"`
	PaymentMethod string         `gorm:"size:30" json:"payment_method"` // checkout_pro | pix
	MercadoPagoID string         `gorm:"size:64;index" json:"mercado_pago_id"` // provider id, empty until known
	QRCode        string         `gorm:"type:text" json:"qr_code,omitempty"`        // Pix copy-paste code
	QRCodeBase64  string         `gorm:"type:mediumtext" json:"qr_code_base64,omitempty"` // rendered QR image
	Status        string         `gorm:"size:20;not null;default:'pending';index" json:"status"` // pending | approved | cancelled
	ApprovedAt    *time.Time     `json:"approved_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User       User       `gorm:"foreignKey:UserID" json:"-"`
	Evaluation Evaluation `gorm:"foreignKey:VehicleID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
