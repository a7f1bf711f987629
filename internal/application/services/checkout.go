package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/persistence/postgres"
)

// CreateCheckoutCommand opens a gateway checkout session for an order.
type CreateCheckoutCommand struct {
	OrderID       string
	BookID        string
	BookName      string
	AmountCents   int64
	CustomerEmail string
}

func (c CreateCheckoutCommand) validate() error {
	switch {
	case c.OrderID == "":
		return application.NewValidationError("orderId is required")
	case c.BookID == "":
		return application.NewValidationError("bookId is required")
	case c.BookName == "":
		return application.NewValidationError("bookName is required")
	case c.CustomerEmail == "":
		return application.NewValidationError("customerEmail is required")
	case c.AmountCents <= 0:
		return application.NewValidationError("price must be greater than zero")
	}
	return nil
}

// CheckoutService opens checkout sessions at the payment gateway and
// pins the session id on the order so abandoned sessions can be
// reconciled later.
type CheckoutService struct {
	orders  application.OrderRepository
	gateway application.PaymentGateway
	logger  *slog.Logger
}

func NewCheckoutService(
	orders application.OrderRepository,
	gateway application.PaymentGateway,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:  orders,
		gateway: gateway,
		logger:  logger,
	}
}

// CreateSession opens a checkout session for the order and returns the
// gateway URL the customer should be redirected to.
func (s *CheckoutService) CreateSession(ctx context.Context, cmd CreateCheckoutCommand) (string, error) {
	if err := cmd.validate(); err != nil {
		return "", err
	}

	if _, err := s.orders.FindByID(ctx, cmd.OrderID); err != nil {
		if errors.Is(err, postgres.ErrOrderNotFound) {
			return "", application.NewNotFoundError(fmt.Sprintf("order %s not found", cmd.OrderID))
		}
		return "", application.NewInternalError(err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, application.CreateSessionRequest{
		AmountCents:   cmd.AmountCents,
		Currency:      "usd",
		ProductName:   cmd.BookName,
		CustomerEmail: cmd.CustomerEmail,
		BookID:        cmd.BookID,
		OrderID:       cmd.OrderID,
	})
	if err != nil {
		return "", application.NewUpstreamError(err)
	}

	if err := s.orders.SetCheckoutSession(ctx, cmd.OrderID, session.ID); err != nil {
		// The session exists at the gateway either way; the reconciler
		// cannot find this order without the link, so fail loudly.
		return "", application.NewInternalError(err)
	}

	s.logger.Info("checkout session created",
		"order_id", cmd.OrderID,
		"session_id", session.ID,
	)
	return session.URL, nil
}
