package analytics

import (
	"context"
	"fmt"
	"time"

	"printforge/internal/models"
	"printforge/internal/repositories"

	"github.com/google/uuid"
)

// Service is the read-only analytics aggregator over subscription and
// payment state. It never mutates anything and always reads current
// persisted state per call. Empty data yields zeroed scalars and empty
// or zero-filled series, never an error.
type Service struct {
	subscriptionRepo repositories.SubscriptionRepository
	paymentRepo      repositories.PaymentRepository

	// now is swappable in tests; everything downstream derives its
	// calendar window from it.
	now func() time.Time
}

// Event sources for daily series.
const (
	SourcePayments           = "payments"
	SourceSubscriptionStarts = "subscription_starts"
)

const (
	DefaultDayWindow = 90
	MaxDayWindow     = 365

	// Analytics scans list through the repositories; this bounds them.
	analyticsScanLimit = 10000
)

// SummaryStats are the scalar KPIs shown on the billing dashboard.
type SummaryStats struct {
	TotalSubscriptions  int     `json:"total_subscriptions"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
	MRR                 float64 `json:"mrr"`
	ARPU                float64 `json:"arpu"`
	TotalPayments       int     `json:"total_payments"`
	SuccessfulPayments  int     `json:"successful_payments"`
	TotalRevenue        float64 `json:"total_revenue"`
	AveragePaymentValue float64 `json:"average_payment_value"`
}

// SeriesPoint is one day of a densified daily series with its running
// total.
type SeriesPoint struct {
	Date       time.Time `json:"date"`
	Value      float64   `json:"value"`
	Cumulative float64   `json:"cumulative"`
}

// TrendPoint is one day of the active-subscriptions trend.
type TrendPoint struct {
	Date        time.Time `json:"date"`
	ActiveCount int       `json:"active_count"`
}

// ChurnPoint is one calendar month of the churn trend.
type ChurnPoint struct {
	Month     time.Time `json:"month"`
	ChurnRate float64   `json:"churn_rate"`
}

func NewService(subscriptionRepo repositories.SubscriptionRepository, paymentRepo repositories.PaymentRepository) *Service {
	return &Service{
		subscriptionRepo: subscriptionRepo,
		paymentRepo:      paymentRepo,
		now:              time.Now,
	}
}

// SummaryStats computes the scalar KPIs. MRR sums the snapshot price of
// subscriptions whose effective status is Active; ARPU divides that
// recurring revenue by the distinct count of active subscribers and is
// defined as 0 when there are none. Revenue figures consider only
// Completed payments.
func (s *Service) SummaryStats(ctx context.Context) (*SummaryStats, error) {
	stats := &SummaryStats{}
	now := s.now().UTC()

	subscriptions, err := s.subscriptionRepo.List(ctx, analyticsScanLimit, 0)
	if err != nil {
		return nil, err
	}

	activeUsers := make(map[uuid.UUID]struct{})
	for _, sub := range subscriptions {
		stats.TotalSubscriptions++
		if models.DeriveEffectiveStatus(sub, now) != models.SubscriptionActive {
			continue
		}
		stats.ActiveSubscriptions++
		stats.MRR += sub.Price
		activeUsers[sub.UserID] = struct{}{}
	}
	if len(activeUsers) > 0 {
		stats.ARPU = stats.MRR / float64(len(activeUsers))
	}

	total, completed, err := s.paymentRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalPayments = total
	stats.SuccessfulPayments = completed

	completedPayments, err := s.paymentRepo.ListAllCompleted(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range completedPayments {
		stats.TotalRevenue += p.Amount
	}
	if completed > 0 {
		stats.AveragePaymentValue = stats.TotalRevenue / float64(completed)
	}

	return stats, nil
}

// DailySeries aggregates raw events per calendar day, densifies the
// sparse aggregate across the full contiguous range
// [today-dayWindow, today], and computes a prefix sum. Densification
// matters: days without events are absent from the raw aggregate, and
// skipping the zero-fill would produce a non-monotonic cumulative
// curve.
func (s *Service) DailySeries(ctx context.Context, source string, dayWindow int) ([]SeriesPoint, error) {
	dayWindow = ClampDayWindow(dayWindow)
	today := truncateToDay(s.now().UTC())
	start := today.AddDate(0, 0, -dayWindow)

	perDay, err := s.aggregatePerDay(ctx, source, start)
	if err != nil {
		return nil, err
	}

	series := make([]SeriesPoint, 0, dayWindow+1)
	var cumulative float64
	for d := 0; d <= dayWindow; d++ {
		day := start.AddDate(0, 0, d)
		value := perDay[day]
		cumulative += value
		series = append(series, SeriesPoint{Date: day, Value: value, Cumulative: cumulative})
	}
	return series, nil
}

func (s *Service) aggregatePerDay(ctx context.Context, source string, since time.Time) (map[time.Time]float64, error) {
	perDay := make(map[time.Time]float64)

	switch source {
	case SourcePayments:
		payments, err := s.paymentRepo.ListCompletedSince(ctx, since)
		if err != nil {
			return nil, err
		}
		for _, p := range payments {
			perDay[truncateToDay(p.PaymentDate.UTC())] += p.Amount
		}
	case SourceSubscriptionStarts:
		subscriptions, err := s.subscriptionRepo.ListStartedSince(ctx, since)
		if err != nil {
			return nil, err
		}
		for _, sub := range subscriptions {
			perDay[truncateToDay(sub.StartDate.UTC())] += sub.Price
		}
	default:
		return nil, fmt.Errorf("unknown event source %q", source)
	}

	return perDay, nil
}

// ActiveSubscriptionsTrend counts, for each day of the window, the
// subscriptions whose lifetime covers that day. End dates reconstruct
// history, so a subscription cancelled yesterday still counts as
// active for the days before its cancellation.
func (s *Service) ActiveSubscriptionsTrend(ctx context.Context, dayWindow int) ([]TrendPoint, error) {
	dayWindow = ClampDayWindow(dayWindow)
	today := truncateToDay(s.now().UTC())
	start := today.AddDate(0, 0, -dayWindow)

	subscriptions, err := s.subscriptionRepo.List(ctx, analyticsScanLimit, 0)
	if err != nil {
		return nil, err
	}

	trend := make([]TrendPoint, 0, dayWindow+1)
	for d := 0; d <= dayWindow; d++ {
		day := start.AddDate(0, 0, d)
		count := 0
		for _, sub := range subscriptions {
			if sub.ActiveOn(day) {
				count++
			}
		}
		trend = append(trend, TrendPoint{Date: day, ActiveCount: count})
	}
	return trend, nil
}

// ChurnTrend computes cohort-based monthly churn from persisted
// lifecycle data: subscriptions that ended within a month divided by
// the subscriptions active at that month's start. Months with an empty
// cohort report a rate of 0.
func (s *Service) ChurnTrend(ctx context.Context, dayWindow int) ([]ChurnPoint, error) {
	dayWindow = ClampDayWindow(dayWindow)
	now := s.now().UTC()
	windowStart := now.AddDate(0, 0, -dayWindow)

	subscriptions, err := s.subscriptionRepo.List(ctx, analyticsScanLimit, 0)
	if err != nil {
		return nil, err
	}

	firstMonth := time.Date(windowStart.Year(), windowStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var trend []ChurnPoint
	for month := firstMonth; !month.After(lastMonth); month = month.AddDate(0, 1, 0) {
		nextMonth := month.AddDate(0, 1, 0)

		cohort := 0
		churned := 0
		for _, sub := range subscriptions {
			if sub.StartDate.Before(month) && (sub.EndDate == nil || !sub.EndDate.Before(month)) {
				cohort++
			}
			if sub.EndDate != nil && !sub.EndDate.Before(month) && sub.EndDate.Before(nextMonth) {
				churned++
			}
		}

		rate := 0.0
		if cohort > 0 {
			rate = float64(churned) / float64(cohort)
		}
		trend = append(trend, ChurnPoint{Month: month, ChurnRate: rate})
	}
	return trend, nil
}

// ClampDayWindow bounds a requested window to keep analytic scans
// finite, defaulting to DefaultDayWindow when unset.
func ClampDayWindow(dayWindow int) int {
	if dayWindow <= 0 {
		return DefaultDayWindow
	}
	if dayWindow > MaxDayWindow {
		return MaxDayWindow
	}
	return dayWindow
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
