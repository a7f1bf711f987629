package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepository is the append-only payment ledger. Rows are never
// updated or deleted; the unique constraint on transaction_id makes the
// insert the commit point of the confirmation workflow.
type PaymentRepository struct {
	q Executor
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

// Insert appends a ledger entry. A uniqueness violation on the
// transaction id is surfaced as a DuplicateTransaction domain error so
// callers can distinguish a lost race from a genuine write failure.
func (r *PaymentRepository) Insert(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, transaction_id, order_id, book_id, customer_email,
			amount_cents, currency, payment_status, tracking_id, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	m := toPaymentModel(payment)
	_, err := r.q.Exec(ctx, query,
		m.ID,
		m.TransactionID,
		m.OrderID,
		m.BookID,
		m.CustomerEmail,
		m.AmountCents,
		m.Currency,
		m.PaymentStatus,
		m.TrackingID,
		m.PaidAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			return domain.NewDuplicateTransactionError(payment.TransactionID)
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

func (r *PaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	query := `
		SELECT id, transaction_id, order_id, book_id, customer_email,
		       amount_cents, currency, payment_status, tracking_id, paid_at
		FROM payments WHERE transaction_id = $1
	`

	var m PaymentModel
	err := r.q.QueryRow(ctx, query, transactionID).Scan(
		&m.ID, &m.TransactionID, &m.OrderID, &m.BookID, &m.CustomerEmail,
		&m.AmountCents, &m.Currency, &m.PaymentStatus, &m.TrackingID, &m.PaidAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return toDomainPayment(m), nil
}
