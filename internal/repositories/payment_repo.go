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
	"github.com/jackc/pgx/v5/pgconn"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	MarkRefunded(ctx context.Context, id uuid.UUID, note string) error
	List(ctx context.Context, limit, offset int) ([]*models.PaymentRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.PaymentRecord, error)
	ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Payment, error)
	ListAllCompleted(ctx context.Context) ([]*models.Payment, error)
	CountByStatus(ctx context.Context) (total int, completed int, err error)
}

type paymentRepo struct {
	db DB
}

func NewPaymentRepository(db DB) PaymentRepository {
	return &paymentRepo{db: db}
}

const paymentColumns = `id, subscription_id, amount, payment_date, payment_method, transaction_id, status, notes, created_at`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(&p.ID, &p.SubscriptionID, &p.Amount, &p.PaymentDate, &p.PaymentMethod, &p.TransactionID, &p.Status, &p.Notes, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, subscription_id, amount, payment_date, payment_method, transaction_id, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query, payment.ID, payment.SubscriptionID, payment.Amount, payment.PaymentDate, payment.PaymentMethod, payment.TransactionID, payment.Status, payment.Notes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation on transaction_id
				return fmt.Errorf("transaction id %q already recorded: %w", payment.TransactionID, common.ErrConflict)
			case "23503": // foreign_key_violation on subscription_id
				return fmt.Errorf("subscription %s: %w", payment.SubscriptionID, common.ErrNotFound)
			}
		}
		return fmt.Errorf("insert payment: %w: %v", common.ErrPersistence, err)
	}
	return nil
}

func (r *paymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("get payment: %w: %v", common.ErrPersistence, err)
	}
	return p, nil
}

// MarkRefunded moves a payment from Completed to Refunded and appends
// the refund note, all inside one transaction. The row lock taken
// before the status check serializes concurrent refunds of the same
// payment: exactly one commits, the other observes Refunded and gets
// ErrInvalidState.
func (r *paymentRepo) MarkRefunded(ctx context.Context, id uuid.UUID, note string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin refund: %w: %v", common.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	var status string
	var notes *string
	err = tx.QueryRow(ctx, `SELECT status, notes FROM payments WHERE id = $1 FOR UPDATE`, id).Scan(&status, &notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("payment %s: %w", id, common.ErrNotFound)
		}
		return fmt.Errorf("lock payment: %w: %v", common.ErrPersistence, err)
	}

	if status != models.PaymentCompleted {
		return fmt.Errorf("payment %s is %s, not refundable: %w", id, status, common.ErrInvalidState)
	}

	// Notes are an append-only trail; prior entries are kept.
	appended := note
	if notes != nil && *notes != "" {
		appended = *notes + "; " + note
	}

	query := `UPDATE payments SET status = $1, notes = $2 WHERE id = $3`
	if _, err := tx.Exec(ctx, query, models.PaymentRefunded, appended, id); err != nil {
		return fmt.Errorf("refund payment: %w: %v", common.ErrPersistence, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit refund: %w: %v", common.ErrPersistence, err)
	}
	return nil
}

const paymentRecordQuery = `
	SELECT p.id, p.subscription_id, p.amount, p.payment_date, p.payment_method, p.transaction_id, p.status, p.notes, p.created_at,
	       s.plan_name, s.user_id
	FROM payments p
	JOIN subscriptions s ON p.subscription_id = s.id
`

func (r *paymentRepo) List(ctx context.Context, limit, offset int) ([]*models.PaymentRecord, error) {
	query := paymentRecordQuery + `
	ORDER BY p.payment_date DESC
	LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w: %v", common.ErrPersistence, err)
	}
	defer rows.Close()
	return collectPaymentRecords(rows)
}

func (r *paymentRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.PaymentRecord, error) {
	query := paymentRecordQuery + `
	WHERE s.user_id = $1
	ORDER BY p.payment_date DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list user payments: %w: %v", common.ErrPersistence, err)
	}
	defer rows.Close()
	return collectPaymentRecords(rows)
}

func (r *paymentRepo) ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = $1 AND payment_date >= $2
		ORDER BY payment_date ASC
	`
	rows, err := r.db.Query(ctx, query, models.PaymentCompleted, since)
	if err != nil {
		return nil, fmt.Errorf("list completed payments: %w: %v", common.ErrPersistence, err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) ListAllCompleted(ctx context.Context) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = $1
		ORDER BY payment_date ASC
	`
	rows, err := r.db.Query(ctx, query, models.PaymentCompleted)
	if err != nil {
		return nil, fmt.Errorf("list completed payments: %w: %v", common.ErrPersistence, err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *paymentRepo) CountByStatus(ctx context.Context) (int, int, error) {
	var total, completed int
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1)
		FROM payments
	`
	err := r.db.QueryRow(ctx, query, models.PaymentCompleted).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("count payments: %w: %v", common.ErrPersistence, err)
	}
	return total, completed, nil
}

func collectPayments(rows pgx.Rows) ([]*models.Payment, error) {
	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w: %v", common.ErrPersistence, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w: %v", common.ErrPersistence, err)
	}
	return payments, nil
}

func collectPaymentRecords(rows pgx.Rows) ([]*models.PaymentRecord, error) {
	var records []*models.PaymentRecord
	for rows.Next() {
		rec := &models.PaymentRecord{}
		err := rows.Scan(&rec.ID, &rec.SubscriptionID, &rec.Amount, &rec.PaymentDate, &rec.PaymentMethod, &rec.TransactionID, &rec.Status, &rec.Notes, &rec.CreatedAt, &rec.PlanName, &rec.UserID)
		if err != nil {
			return nil, fmt.Errorf("scan payment record: %w: %v", common.ErrPersistence, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment records: %w: %v", common.ErrPersistence, err)
	}
	return records, nil
}
