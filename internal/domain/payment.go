package domain

import (
	"time"
)

// Payment is one entry in the payment ledger. Entries are created
// exactly once per gateway transaction and never mutated or deleted;
// the store enforces uniqueness on TransactionID.
type Payment struct {
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

func NewPayment(
	id string,
	transactionID string,
	orderID string,
	bookID string,
	customerEmail string,
	amount Money,
	paymentStatus string,
	trackingID string,
	paidAt time.Time,
) (*Payment, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("payment ID")
	}
	if transactionID == "" {
		return nil, NewMissingRequiredFieldError("transaction ID")
	}
	if orderID == "" {
		return nil, NewMissingRequiredFieldError("order ID")
	}
	if trackingID == "" {
		return nil, NewMissingRequiredFieldError("tracking ID")
	}

	return &Payment{
		ID:            id,
		TransactionID: transactionID,
		OrderID:       orderID,
		BookID:        bookID,
		CustomerEmail: customerEmail,
		AmountCents:   amount.Amount,
		Currency:      amount.Currency,
		PaymentStatus: paymentStatus,
		TrackingID:    trackingID,
		PaidAt:        paidAt,
	}, nil
}

// ReconstitutePayment - Special constructor for loading from DB
func ReconstitutePayment(
	id, transactionID, orderID, bookID, customerEmail string,
	amountCents int64, currency, paymentStatus, trackingID string,
	paidAt time.Time,
) *Payment {
	return &Payment{
		ID:            id,
		TransactionID: transactionID,
		OrderID:       orderID,
		BookID:        bookID,
		CustomerEmail: customerEmail,
		AmountCents:   amountCents,
		Currency:      currency,
		PaymentStatus: paymentStatus,
		TrackingID:    trackingID,
		PaidAt:        paidAt,
	}
}
