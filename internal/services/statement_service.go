package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"printforge/internal/analytics"
)

const (
	statementBucket      = "billing-statements"
	statementContentType = "text/csv"
)

// StatementService renders the current billing KPIs and the payment
// daily series into a CSV statement and archives it in object storage.
// It runs on a schedule and on demand from the admin surface.
type StatementService interface {
	Export(ctx context.Context) (string, error)
	DownloadURL(objectName string, expiry time.Duration) (string, error)
}

type statementService struct {
	analyticsSvc *analytics.Service
	store        ObjectStore
}

func NewStatementService(analyticsSvc *analytics.Service, store ObjectStore) StatementService {
	return &statementService{
		analyticsSvc: analyticsSvc,
		store:        store,
	}
}

// Export builds the statement for the default analytics window and
// uploads it, returning the object name.
func (s *statementService) Export(ctx context.Context) (string, error) {
	stats, err := s.analyticsSvc.SummaryStats(ctx)
	if err != nil {
		return "", fmt.Errorf("statement stats: %w", err)
	}

	series, err := s.analyticsSvc.DailySeries(ctx, analytics.SourcePayments, analytics.DefaultDayWindow)
	if err != nil {
		return "", fmt.Errorf("statement series: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"metric", "value"})
	w.Write([]string{"total_subscriptions", strconv.Itoa(stats.TotalSubscriptions)})
	w.Write([]string{"active_subscriptions", strconv.Itoa(stats.ActiveSubscriptions)})
	w.Write([]string{"mrr", formatAmount(stats.MRR)})
	w.Write([]string{"arpu", formatAmount(stats.ARPU)})
	w.Write([]string{"total_payments", strconv.Itoa(stats.TotalPayments)})
	w.Write([]string{"successful_payments", strconv.Itoa(stats.SuccessfulPayments)})
	w.Write([]string{"total_revenue", formatAmount(stats.TotalRevenue)})
	w.Write([]string{"average_payment_value", formatAmount(stats.AveragePaymentValue)})

	w.Write([]string{})
	w.Write([]string{"date", "daily_volume", "cumulative_volume"})
	for _, point := range series {
		w.Write([]string{
			point.Date.Format("2006-01-02"),
			formatAmount(point.Value),
			formatAmount(point.Cumulative),
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("render statement: %w", err)
	}

	if err := s.store.EnsureBucketExists(ctx, statementBucket); err != nil {
		return "", fmt.Errorf("statement bucket: %w", err)
	}

	objectName := fmt.Sprintf("statements/%s.csv", time.Now().UTC().Format("2006-01-02"))
	if err := s.store.Upload(ctx, statementBucket, objectName, &buf, int64(buf.Len()), statementContentType); err != nil {
		return "", fmt.Errorf("upload statement: %w", err)
	}

	return objectName, nil
}

func (s *statementService) DownloadURL(objectName string, expiry time.Duration) (string, error) {
	return s.store.PresignedURL(statementBucket, objectName, expiry)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
