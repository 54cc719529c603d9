package service

import (
	"errors"
	"log"
	"strconv"
	"time"

	"autovalor/config"
	"autovalor/internal/domain"
	"autovalor/internal/models"
	"autovalor/internal/repository"

	"gorm.io/gorm"
)

var (
	// ErrEvaluationNotFound means the external reference matched no local
	// evaluation. The webhook handler logs it and still acknowledges the
	// notification; provider retries will not fix a missing row.
	ErrEvaluationNotFound = errors.New("evaluation not found for external reference")
)

// ReconcileResult reports what a notification changed.
type ReconcileResult struct {
	EvaluationID  uint
	PaymentID     uint // zero when no payment row was touched
	NewlyApproved bool // true only on the first pending->approved transition
}

// ReconcileService merges externally reported payment outcomes into local
// state. All transitions are idempotent and forward-only: an approved
// evaluation is never regressed, and processing the same approved
// notification any number of times converges to one approved evaluation and
// one approved payment. It operates on unscoped repositories because the
// caller is the payment provider, not an end user.
type ReconcileService struct {
	evalRepo    *repository.EvaluationRepository
	paymentRepo *repository.PaymentRepository
	notifSvc    *NotificationService
	fee         config.ValuationConfig
}

func NewReconcileService(evalRepo *repository.EvaluationRepository, paymentRepo *repository.PaymentRepository, notifSvc *NotificationService, fee config.ValuationConfig) *ReconcileService {
	return &ReconcileService{evalRepo: evalRepo, paymentRepo: paymentRepo, notifSvc: notifSvc, fee: fee}
}

// Apply processes one canonical (external_reference, status) pair. The
// external reference carries the evaluation id; mercadoPagoID is the
// provider's transaction id, attached to the payment row for history.
func (s *ReconcileService) Apply(externalReference, status, mercadoPagoID string) (*ReconcileResult, error) {
	evalID, err := strconv.ParseUint(externalReference, 10, 32)
	if err != nil {
		return nil, ErrEvaluationNotFound
	}
	ev, err := s.evalRepo.GetByID(uint(evalID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEvaluationNotFound
		}
		return nil, err
	}

	res := &ReconcileResult{EvaluationID: ev.ID}
	switch status {
	case domain.PaymentStatusApproved:
		return s.applyApproved(ev, mercadoPagoID, res)
	case domain.PaymentStatusCancelled:
		// Never regress the evaluation; settle the pending attempt for history.
		p, err := s.paymentRepo.LatestPendingByVehicle(ev.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return res, nil
			}
			return nil, err
		}
		if _, err := s.paymentRepo.MarkCancelled(p.ID, mercadoPagoID); err != nil {
			return nil, err
		}
		res.PaymentID = p.ID
		return res, nil
	default:
		log.Printf("[reconcile] evaluation=%d still pending (mp_id=%s)", ev.ID, mercadoPagoID)
		return res, nil
	}
}

func (s *ReconcileService) applyApproved(ev *models.Evaluation, mercadoPagoID string, res *ReconcileResult) (*ReconcileResult, error) {
	first, err := s.evalRepo.Approve(ev.ID)
	if err != nil {
		return nil, err
	}
	res.NewlyApproved = first

	// At most one payment per evaluation ever ends approved. The check runs
	// before any pending attempt is settled: a redelivered notification may
	// arrive after the user opened a fresh attempt for an already-approved
	// evaluation, and that later row must stay pending.
	alreadyPaid, err := s.paymentRepo.HasApproved(ev.ID)
	if err != nil {
		return nil, err
	}
	if !alreadyPaid {
		p, err := s.paymentRepo.LatestPendingByVehicle(ev.ID)
		switch {
		case err == nil:
			ok, err := s.paymentRepo.MarkApproved(p.ID, mercadoPagoID)
			if err != nil {
				return nil, err
			}
			if !ok {
				// A concurrent delivery settled it between the read and the write.
				log.Printf("[reconcile] payment=%d already settled for evaluation=%d", p.ID, ev.ID)
			}
			res.PaymentID = p.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			// No payment row at all: creation was skipped (direct checkout
			// without a prior record). Every approval must still have one.
			now := time.Now()
			p := &models.Payment{
				UserID:        ev.UserID,
				VehicleID:     ev.ID,
				AmountCents:   s.fee.AmountCents,
				Currency:      s.fee.Currency,
				PaymentMethod: domain.PaymentMethodCheckoutPro,
				MercadoPagoID: mercadoPagoID,
				Status:        domain.PaymentStatusApproved,
				ApprovedAt:    &now,
			}
			if err := s.paymentRepo.Create(p); err != nil {
				return nil, err
			}
			res.PaymentID = p.ID
			log.Printf("[reconcile] inserted approved payment=%d for evaluation=%d (no pending attempt)", p.ID, ev.ID)
		default:
			return nil, err
		}
	}

	if first {
		log.Printf("[reconcile] evaluation=%d approved (mp_id=%s payment=%d)", ev.ID, mercadoPagoID, res.PaymentID)
		if s.notifSvc != nil {
			_ = s.notifSvc.NotifyPaymentApproved(ev.UserID, s.fee.AmountCents, mercadoPagoID)
		}
	}
	return res, nil
}
