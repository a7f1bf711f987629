package application

import (
	"context"
	"time"

	"github.com/bookcourier/book-courier-api/internal/domain"
)

// PaymentGateway is the port for the external payment processor. It is
// consumed only at its boundary: the service never sees checkout
// internals beyond the session state the gateway reports.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CreateSessionRequest) (*CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// CreateSessionRequest describes the checkout session to open for an
// order.
type CreateSessionRequest struct {
	AmountCents   int64
	Currency      string
	ProductName   string
	CustomerEmail string
	BookID        string
	OrderID       string
}

// CheckoutSession is the gateway's view of a checkout session. The
// transaction id (payment intent) is the idempotency key for the
// payment ledger.
type CheckoutSession struct {
	ID            string
	URL           string
	TransactionID string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	BookID        string
	OrderID       string
}

// Paid reports whether the gateway has confirmed the payment. "paid" is
// the only status the confirmation workflow acts on.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

// TokenVerifier is the port for the identity provider boundary. It
// returns an explicit result instead of short-circuiting the request.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

// UpdateOutcome reports what a store-level write did. Handlers surface
// it verbatim in update responses.
type UpdateOutcome struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// OrderRepository is the port for the order store.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindAll(ctx context.Context) ([]*domain.Order, error)
	FindByCustomerEmail(ctx context.Context, email string) ([]*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) (*UpdateOutcome, error)
	SetCheckoutSession(ctx context.Context, orderID, sessionID string) error
	FindUnpaidWithSession(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Order, error)
	DeleteByBookID(ctx context.Context, bookID string) (int64, error)
}

// PaymentRepository is the port for the append-only payment ledger.
// Insert must surface a transaction-id uniqueness violation as
// ErrCodeDuplicateTransaction, distinctly from other write failures;
// that violation is the authoritative guard against double-crediting.
type PaymentRepository interface {
	Insert(ctx context.Context, payment *domain.Payment) error
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
}

type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	FindByID(ctx context.Context, id string) (*domain.Book, error)
	Find(ctx context.Context, filter BookFilter) ([]*domain.Book, error)
	Update(ctx context.Context, book *domain.Book) (*UpdateOutcome, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// BookFilter narrows a catalog listing. Zero values mean "no filter".
type BookFilter struct {
	LibrarianEmail string
	SearchText     string
	Limit          int
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, name, role *string) (*UpdateOutcome, error)
}
