package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestDeriveEffectiveStatus(t *testing.T) {
	asOf := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	past := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  Subscription
		want string
	}{
		{"active without end date", Subscription{Status: SubscriptionActive}, SubscriptionActive},
		{"active with future end date", Subscription{Status: SubscriptionActive, EndDate: timePtr(future)}, SubscriptionActive},
		{"active with past end date", Subscription{Status: SubscriptionActive, EndDate: timePtr(past)}, SubscriptionExpired},
		{"cancelled stays cancelled", Subscription{Status: SubscriptionCancelled, EndDate: timePtr(past)}, SubscriptionCancelled},
		{"expired stays expired", Subscription{Status: SubscriptionExpired, EndDate: timePtr(past)}, SubscriptionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveEffectiveStatus(&tt.sub, asOf))
		})
	}
}

func TestDeriveEffectiveStatus_DoesNotMutate(t *testing.T) {
	past := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sub := Subscription{Status: SubscriptionActive, EndDate: timePtr(past)}

	got := DeriveEffectiveStatus(&sub, past.AddDate(0, 1, 0))
	assert.Equal(t, SubscriptionExpired, got)
	assert.Equal(t, SubscriptionActive, sub.Status)
}

func TestActiveOn(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	openEnded := Subscription{StartDate: start, Status: SubscriptionActive}
	assert.False(t, openEnded.ActiveOn(start.AddDate(0, 0, -1)))
	assert.True(t, openEnded.ActiveOn(start))
	assert.True(t, openEnded.ActiveOn(start.AddDate(1, 0, 0)))

	// Stored status is irrelevant; the date range reconstructs history.
	cancelled := Subscription{StartDate: start, EndDate: timePtr(end), Status: SubscriptionCancelled}
	assert.True(t, cancelled.ActiveOn(start))
	assert.True(t, cancelled.ActiveOn(end))
	assert.False(t, cancelled.ActiveOn(end.AddDate(0, 0, 1)))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, (&Subscription{Status: SubscriptionActive}).IsTerminal())
	assert.True(t, (&Subscription{Status: SubscriptionExpired}).IsTerminal())
	assert.True(t, (&Subscription{Status: SubscriptionCancelled}).IsTerminal())
}

func TestRecordablePaymentStatus(t *testing.T) {
	assert.True(t, RecordablePaymentStatus(PaymentCompleted))
	assert.True(t, RecordablePaymentStatus(PaymentFailed))
	assert.False(t, RecordablePaymentStatus(PaymentRefunded))
	assert.False(t, RecordablePaymentStatus("completed"))
	assert.False(t, RecordablePaymentStatus(""))
}
