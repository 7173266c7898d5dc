package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"printforge/internal/common"
	"printforge/internal/models"
	"printforge/internal/repositories"

	"github.com/google/uuid"
)

const maxPaymentAmount = 1000000.00

// PaymentService is the payment ledger: it records settled payment
// attempts against subscriptions and processes refunds. Gateway
// integration is out of scope; transactions arrive already settled.
type PaymentService interface {
	Record(ctx context.Context, req *RecordPaymentRequest) (*models.Payment, error)
	Refund(ctx context.Context, paymentID, requestingUserID uuid.UUID, reason string) error
	GetByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	List(ctx context.Context, requestingUserID uuid.UUID, limit, offset int) ([]*models.PaymentRecord, error)
}

// RecordPaymentRequest carries the fields of an externally settled
// payment attempt. TransactionID comes from the settlement system and
// is globally unique.
type RecordPaymentRequest struct {
	SubscriptionID uuid.UUID
	Amount         float64
	PaymentDate    time.Time
	PaymentMethod  string
	TransactionID  string
	Status         string
}

type paymentService struct {
	paymentRepo      repositories.PaymentRepository
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
) PaymentService {
	return &paymentService{
		paymentRepo:      paymentRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
	}
}

// Record validates and persists a payment attempt. The parent
// subscription is not mutated. A duplicate transaction id surfaces as
// ErrConflict from the uniqueness constraint.
func (s *paymentService) Record(ctx context.Context, req *RecordPaymentRequest) (*models.Payment, error) {
	if err := common.ValidatePositiveFloat(req.Amount, "amount", maxPaymentAmount); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(req.TransactionID, "transaction_id"); err != nil {
		return nil, err
	}
	if !models.RecordablePaymentStatus(req.Status) {
		return nil, fmt.Errorf("payment status must be %s or %s", models.PaymentCompleted, models.PaymentFailed)
	}

	if _, err := s.subscriptionRepo.GetByID(ctx, req.SubscriptionID); err != nil {
		return nil, err
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		PaymentDate:    paymentDate,
		PaymentMethod:  req.PaymentMethod,
		TransactionID:  req.TransactionID,
		Status:         req.Status,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Refund moves a Completed payment to Refunded and appends the reason
// to its notes trail. Ownership is resolved transitively through the
// parent subscription. The status check and the mutation happen inside
// one transaction in the repository, so of two concurrent refunds only
// one succeeds and the other gets ErrInvalidState.
func (s *paymentService) Refund(ctx context.Context, paymentID, requestingUserID uuid.UUID, reason string) error {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}

	subscription, err := s.subscriptionRepo.GetByID(ctx, payment.SubscriptionID)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, subscription.UserID, requestingUserID); err != nil {
		return err
	}

	if reason == "" {
		reason = "User requested refund"
	}
	note := fmt.Sprintf("Refund processed on %s: %s", time.Now().UTC().Format("2006-01-02"), reason)

	return s.paymentRepo.MarkRefunded(ctx, paymentID, note)
}

func (s *paymentService) GetByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	return s.paymentRepo.GetByID(ctx, paymentID)
}

// List returns the flat payment projection joined with plan names:
// admins see the full ledger, other callers only payments under their
// own subscriptions.
func (s *paymentService) List(ctx context.Context, requestingUserID uuid.UUID, limit, offset int) ([]*models.PaymentRecord, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)

	user, err := s.userRepo.GetByID(ctx, requestingUserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", requestingUserID, common.ErrInvalidUser)
		}
		return nil, err
	}

	if user.IsAdmin() {
		return s.paymentRepo.List(ctx, limit, offset)
	}
	return s.paymentRepo.ListByUser(ctx, requestingUserID, limit, offset)
}

func (s *paymentService) authorize(ctx context.Context, ownerUserID, requestingUserID uuid.UUID) error {
	if ownerUserID == requestingUserID {
		return nil
	}

	user, err := s.userRepo.GetByID(ctx, requestingUserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("user %s: %w", requestingUserID, common.ErrInvalidUser)
		}
		return err
	}
	if !user.IsAdmin() {
		return fmt.Errorf("user %s does not own the subscription for this payment: %w", requestingUserID, common.ErrForbidden)
	}
	return nil
}
