package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"printforge/internal/common"
	"printforge/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, limit, offset int) ([]*models.Subscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Subscription, error)
	ListStartedSince(ctx context.Context, since time.Time) ([]*models.Subscription, error)
}

type subscriptionRepo struct {
	db DB
}

func NewSubscriptionRepository(db DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

const subscriptionColumns = `id, user_id, plan_name, price, start_date, end_date, status, auto_renew, created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanName, &sub.Price, &sub.StartDate, &sub.EndDate, &sub.Status, &sub.AutoRenew, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, subscription *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, plan_name, price, start_date, end_date, status, auto_renew, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, subscription.ID, subscription.UserID, subscription.PlanName, subscription.Price, subscription.StartDate, subscription.EndDate, subscription.Status, subscription.AutoRenew)
	if err != nil {
		return fmt.Errorf("insert subscription: %w: %v", common.ErrPersistence, err)
	}
	return nil
}

func (r *subscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("get subscription: %w: %v", common.ErrPersistence, err)
	}
	return sub, nil
}

// MarkCancelled flips a subscription into the Cancelled terminal state
// inside one transaction. The row is locked before the status check so
// concurrent cancellations serialize; the loser observes the terminal
// state and gets ErrInvalidState.
func (r *subscriptionRepo) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cancel: %w: %v", common.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM subscriptions WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
		}
		return fmt.Errorf("lock subscription: %w: %v", common.ErrPersistence, err)
	}

	if status != models.SubscriptionActive {
		return fmt.Errorf("subscription %s is already %s: %w", id, status, common.ErrInvalidState)
	}

	query := `
		UPDATE subscriptions
		SET status = $1, auto_renew = FALSE, end_date = $2, updated_at = NOW()
		WHERE id = $3
	`
	if _, err := tx.Exec(ctx, query, models.SubscriptionCancelled, at, id); err != nil {
		return fmt.Errorf("cancel subscription: %w: %v", common.ErrPersistence, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit cancel: %w: %v", common.ErrPersistence, err)
	}
	return nil
}

func (r *subscriptionRepo) List(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w: %v", common.ErrPersistence, err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list user subscriptions: %w: %v", common.ErrPersistence, err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (r *subscriptionRepo) ListStartedSince(ctx context.Context, since time.Time) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE start_date >= $1
		ORDER BY start_date ASC
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list started subscriptions: %w: %v", common.ErrPersistence, err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func collectSubscriptions(rows pgx.Rows) ([]*models.Subscription, error) {
	var subscriptions []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w: %v", common.ErrPersistence, err)
		}
		subscriptions = append(subscriptions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w: %v", common.ErrPersistence, err)
	}
	return subscriptions, nil
}
