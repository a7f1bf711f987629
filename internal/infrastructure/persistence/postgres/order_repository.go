package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository struct {
	q Executor
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{q: db.Pool}
}

// Create inserts a new order. The id is assigned by the store and
// written back onto the entity.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			customer_email, book_id, order_status, is_canceled,
			payment_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	m := toOrderModel(order)
	err := r.q.QueryRow(ctx, query,
		m.CustomerEmail,
		m.BookID,
		m.OrderStatus,
		m.IsCanceled,
		m.PaymentStatus,
		m.CreatedAt,
		m.UpdatedAt,
	).Scan(&order.ID)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := orderSelect + ` WHERE id = $1`

	row := r.q.QueryRow(ctx, query, id)
	return scanOrder(row)
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	query := orderSelect + ` ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return collectOrders(rows)
}

func (r *OrderRepository) FindByCustomerEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	query := orderSelect + ` WHERE customer_email = $1 ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("query orders by customer_email: %w", err)
	}
	return collectOrders(rows)
}

// Update writes the order's mutable fields. The tracking id column is
// only filled when still NULL, so a racing confirmation can never
// overwrite an assigned tracking id.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) (*application.UpdateOutcome, error) {
	query := `
		UPDATE orders
		SET order_status = $1,
			is_canceled = $2,
			payment_status = $3,
			tracking_id = COALESCE(tracking_id, $4),
			updated_at = $5
		WHERE id = $6
	`

	m := toOrderModel(order)
	result, err := r.q.Exec(ctx, query,
		m.OrderStatus,
		m.IsCanceled,
		m.PaymentStatus,
		m.TrackingID,
		m.UpdatedAt,
		m.ID,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	rowsAffected := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, ErrOrderNotFound
	}

	return &application.UpdateOutcome{
		MatchedCount:  rowsAffected,
		ModifiedCount: rowsAffected,
	}, nil
}

// SetCheckoutSession links an order to its checkout session at the
// payment gateway.
func (r *OrderRepository) SetCheckoutSession(ctx context.Context, orderID, sessionID string) error {
	query := `
		UPDATE orders
		SET checkout_session_id = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, sessionID, orderID)
	if err != nil {
		return fmt.Errorf("failed to set checkout session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// FindUnpaidWithSession returns orders that opened a checkout session
// but were never confirmed paid, oldest first. The reconciliation
// worker feeds these back through the confirmation workflow.
func (r *OrderRepository) FindUnpaidWithSession(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Order, error) {
	query := orderSelect + `
		WHERE checkout_session_id IS NOT NULL
		  AND payment_status <> 'paid'
		  AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpaid orders: %w", err)
	}
	return collectOrders(rows)
}

// DeleteByBookID removes all orders referencing a book. Used when a
// librarian deletes a catalog entry.
func (r *OrderRepository) DeleteByBookID(ctx context.Context, bookID string) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM orders WHERE book_id = $1`, bookID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orders for book: %w", err)
	}

	return result.RowsAffected(), nil
}

const orderSelect = `
	SELECT id, customer_email, book_id, order_status, is_canceled,
	       payment_status, tracking_id, checkout_session_id,
	       created_at, updated_at
	FROM orders`

// scanOrder converts a database row into a domain Order.
// Returns ErrOrderNotFound if the row doesn't exist.
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var m OrderModel
	err := row.Scan(
		&m.ID, &m.CustomerEmail, &m.BookID, &m.OrderStatus, &m.IsCanceled,
		&m.PaymentStatus, &m.TrackingID, &m.CheckoutSessionID,
		&m.CreatedAt, &m.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return toDomainOrder(m), nil
}

func collectOrders(rows pgx.Rows) ([]*domain.Order, error) {
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Order, error) {
		var m OrderModel
		err := row.Scan(
			&m.ID, &m.CustomerEmail, &m.BookID, &m.OrderStatus, &m.IsCanceled,
			&m.PaymentStatus, &m.TrackingID, &m.CheckoutSessionID,
			&m.CreatedAt, &m.UpdatedAt,
		)
		return toDomainOrder(m), err
	})

	if err != nil {
		return nil, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, nil
}
