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

// SubscriptionService manages the subscription lifecycle. Status only
// moves forward; there is no physical deletion.
type SubscriptionService interface {
	Create(ctx context.Context, userID uuid.UUID, planID string, startDate time.Time, autoRenew bool) (*models.Subscription, error)
	Cancel(ctx context.Context, subscriptionID, requestingUserID uuid.UUID) error
	GetByID(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, requestingUserID uuid.UUID, limit, offset int) ([]*models.Subscription, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
	planSvc          PlanService
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
	planSvc PlanService,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		planSvc:          planSvc,
	}
}

// Create resolves the plan and the owner, snapshots the plan price and
// name into the new subscription, and persists it. Auto-renewing
// subscriptions carry no end date; otherwise the end date is the start
// plus one billing interval.
func (s *subscriptionService) Create(ctx context.Context, userID uuid.UUID, planID string, startDate time.Time, autoRenew bool) (*models.Subscription, error) {
	plan, err := s.planSvc.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, common.ErrInvalidUser)
		}
		return nil, err
	}

	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}

	var endDate *time.Time
	if !autoRenew {
		end := addInterval(startDate, plan.Interval)
		endDate = &end
	}

	subscription := &models.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanName:  plan.Name,
		Price:     plan.Price,
		StartDate: startDate,
		EndDate:   endDate,
		Status:    models.SubscriptionActive,
		AutoRenew: autoRenew,
	}

	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return nil, err
	}

	return subscription, nil
}

func addInterval(start time.Time, interval string) time.Time {
	if interval == models.IntervalYear {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// Cancel terminates a subscription immediately: status Cancelled,
// auto-renew off, end date set to now. The caller must own the
// subscription or hold the admin role. Cancelling a subscription that
// is already terminal, including one whose end date has silently
// passed, fails with ErrInvalidState.
func (s *subscriptionService) Cancel(ctx context.Context, subscriptionID, requestingUserID uuid.UUID) error {
	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, subscription.UserID, requestingUserID); err != nil {
		return err
	}

	now := time.Now().UTC()
	if status := models.DeriveEffectiveStatus(subscription, now); status != models.SubscriptionActive {
		return fmt.Errorf("subscription %s is already %s: %w", subscriptionID, status, common.ErrInvalidState)
	}

	return s.subscriptionRepo.MarkCancelled(ctx, subscriptionID, now)
}

// GetByID returns a subscription with its status derived as of now, so
// callers never see a stale stored Active past the end date.
func (s *subscriptionService) GetByID(ctx context.Context, subscriptionID uuid.UUID) (*models.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	subscription.Status = models.DeriveEffectiveStatus(subscription, time.Now().UTC())
	return subscription, nil
}

// List returns the flat subscription projection: admins see every
// subscription, other callers only their own.
func (s *subscriptionService) List(ctx context.Context, requestingUserID uuid.UUID, limit, offset int) ([]*models.Subscription, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)

	user, err := s.userRepo.GetByID(ctx, requestingUserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", requestingUserID, common.ErrInvalidUser)
		}
		return nil, err
	}

	var subscriptions []*models.Subscription
	if user.IsAdmin() {
		subscriptions, err = s.subscriptionRepo.List(ctx, limit, offset)
	} else {
		subscriptions, err = s.subscriptionRepo.ListByUser(ctx, requestingUserID, limit, offset)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, sub := range subscriptions {
		sub.Status = models.DeriveEffectiveStatus(sub, now)
	}
	return subscriptions, nil
}

// authorize passes when the requesting user owns the entity or holds
// the admin role, resolved against the identity store at call time.
func (s *subscriptionService) authorize(ctx context.Context, ownerUserID, requestingUserID uuid.UUID) error {
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
		return fmt.Errorf("user %s does not own this subscription: %w", requestingUserID, common.ErrForbidden)
	}
	return nil
}
