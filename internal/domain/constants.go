package domain

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Canonical payment status shared by payments and the evaluation gate.
// Every provider-specific status vocabulary is normalized into these three.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusApproved  = "approved"
	PaymentStatusCancelled = "cancelled"
)

// Payment methods
const (
	PaymentMethodCheckoutPro = "checkout_pro"
	PaymentMethodPix         = "pix"
)

// CanonicalPaymentStatus maps a Mercado Pago payment status to the local
// three-way model. Anything not terminal stays pending.
func CanonicalPaymentStatus(providerStatus string) string {
	switch providerStatus {
	case "approved":
		return PaymentStatusApproved
	case "cancelled", "rejected":
		return PaymentStatusCancelled
	default:
		return PaymentStatusPending
	}
}
