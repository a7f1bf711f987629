package postgres

import (
	"time"
)

type OrderModel struct {
	ID                string
	CustomerEmail     string
	BookID            string
	OrderStatus       string
	IsCanceled        bool
	PaymentStatus     string
	TrackingID        *string
	CheckoutSessionID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PaymentModel enforces at-most-once semantics via the unique
// constraint on TransactionID.
type PaymentModel struct {
	ID            string
	TransactionID string
	OrderID       string
	BookID        string
	CustomerEmail string
	AmountCents   int64
	Currency      string
	PaymentStatus string
	TrackingID    string
	PaidAt        time.Time
}

type BookModel struct {
	ID             string
	Name           string
	Author         string
	LibrarianEmail string
	PriceCents     int64
	CoverURL       string
	Description    string
	CreatedAt      time.Time
}

type UserModel struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
}
