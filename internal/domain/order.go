// Package domain encodes the order and payment entities of the book
// courier and the rules that govern their lifecycles.
package domain

import (
	"slices"
	"time"
)

// OrderStatus represents the current delivery state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderShifted   OrderStatus = "Shifted"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

// assignableStatuses are the values a caller may request directly.
// Cancelled is only ever reached through the cancellation flag.
var assignableStatuses = []OrderStatus{OrderPending, OrderShifted, OrderDelivered}

type Order struct {
	ID            string
	CustomerEmail string
	BookID        string
	Status        OrderStatus
	IsCanceled    bool
	PaymentStatus string

	// TrackingID is nil until payment is confirmed and never changes
	// afterwards.
	TrackingID *string

	// CheckoutSessionID links the order to its checkout session at the
	// payment gateway, once one has been created.
	CheckoutSessionID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOrder(id, customerEmail, bookID string, createdAt time.Time) (*Order, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("order ID")
	}
	if customerEmail == "" {
		return nil, NewMissingRequiredFieldError("customer email")
	}
	if bookID == "" {
		return nil, NewMissingRequiredFieldError("book ID")
	}

	return &Order{
		ID:            id,
		CustomerEmail: customerEmail,
		BookID:        bookID,
		Status:        OrderPending,
		PaymentStatus: "unpaid",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}, nil
}

// StatusPatch carries the fields of a PATCH /orders/{id} request. A nil
// field means the caller did not supply it.
type StatusPatch struct {
	Status     *OrderStatus
	IsCanceled *bool
}

// IsEmpty reports whether the patch would change nothing. A false
// cancellation flag does not count as a change.
func (p StatusPatch) IsEmpty() bool {
	return p.Status == nil && (p.IsCanceled == nil || !*p.IsCanceled)
}

// ApplyStatusPatch validates and applies a status/cancellation update.
//
// Cancellation dominates: isCanceled=true forces the order to Cancelled
// regardless of its current status, including Delivered. That mirrors
// the ordering rules as shipped; product has been asked whether a
// delivered order should really be cancellable.
func (o *Order) ApplyStatusPatch(patch StatusPatch, now time.Time) error {
	if patch.IsEmpty() {
		return NewEmptyUpdateError()
	}

	if patch.Status != nil {
		if !slices.Contains(assignableStatuses, *patch.Status) {
			return NewInvalidStatusError(string(*patch.Status))
		}
		if o.Status == OrderCancelled {
			return NewInvalidTransitionError(o.Status, *patch.Status)
		}
		o.Status = *patch.Status
	}

	if patch.IsCanceled != nil && *patch.IsCanceled {
		o.IsCanceled = true
		o.Status = OrderCancelled
	}

	o.UpdatedAt = now
	return nil
}

// ConfirmPayment records a confirmed payment on the order. The tracking
// id is only taken if none has been assigned yet.
func (o *Order) ConfirmPayment(trackingID string, now time.Time) {
	o.PaymentStatus = "paid"
	if o.TrackingID == nil {
		o.TrackingID = &trackingID
	}
	o.UpdatedAt = now
}

// Reconstitute - Special constructor for loading from DB
func Reconstitute(
	id, customerEmail, bookID string,
	status OrderStatus,
	isCanceled bool,
	paymentStatus string,
	trackingID, checkoutSessionID *string,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		ID:                id,
		CustomerEmail:     customerEmail,
		BookID:            bookID,
		Status:            status,
		IsCanceled:        isCanceled,
		PaymentStatus:     paymentStatus,
		TrackingID:        trackingID,
		CheckoutSessionID: checkoutSessionID,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
}
