package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription statuses. Status only moves forward: Active may become
// Expired or Cancelled, both of which are terminal. Rows are never
// physically deleted.
const (
	SubscriptionActive    = "Active"
	SubscriptionExpired   = "Expired"
	SubscriptionCancelled = "Cancelled"
)

type Subscription struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	PlanName  string     `json:"plan_name" db:"plan_name"`
	Price     float64    `json:"price" db:"price"`
	StartDate time.Time  `json:"start_date" db:"start_date"`
	EndDate   *time.Time `json:"end_date" db:"end_date"`
	Status    string     `json:"status" db:"status"`
	AutoRenew bool       `json:"auto_renew" db:"auto_renew"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// IsTerminal reports whether the stored status is a terminal state.
func (s *Subscription) IsTerminal() bool {
	return s.Status == SubscriptionExpired || s.Status == SubscriptionCancelled
}

// DeriveEffectiveStatus computes the status of a subscription as of a
// given instant. The stored status field is never reconciled by a
// background job, so an Active subscription whose end date has passed
// is effectively Expired. Every read path that needs correctness calls
// this instead of trusting the stored field.
func DeriveEffectiveStatus(sub *Subscription, asOf time.Time) string {
	if sub.Status == SubscriptionActive && sub.EndDate != nil && sub.EndDate.Before(asOf) {
		return SubscriptionExpired
	}
	return sub.Status
}

// ActiveOn reports whether the subscription was active on the given
// day: it had started and had not yet ended. Cancelled and expired
// subscriptions carry their end date, so the date-range test alone
// reconstructs historical activity without trusting the stored status.
func (s *Subscription) ActiveOn(day time.Time) bool {
	if s.StartDate.After(day) {
		return false
	}
	return s.EndDate == nil || !s.EndDate.Before(day)
}
