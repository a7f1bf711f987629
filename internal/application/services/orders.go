package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
)

// CreateOrderCommand places a new order for a book.
type CreateOrderCommand struct {
	CustomerEmail string
	BookID        string
}

// OrderService implements the order lifecycle use cases: placing
// orders, listing them, and moving them through the delivery states.
type OrderService struct {
	orders application.OrderRepository
	logger *slog.Logger
}

func NewOrderService(orders application.OrderRepository, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		logger: logger,
	}
}

func (s *OrderService) Create(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	order, err := domain.NewOrder(uuid.New().String(), cmd.CustomerEmail, cmd.BookID, time.Now())
	if err != nil {
		return nil, application.NewValidationError(err.Error())
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("order created",
		"order_id", order.ID,
		"book_id", order.BookID,
	)
	return order, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return orders, nil
}

// ListForCustomer returns the orders belonging to email. The caller's
// verified identity must match the requested mailbox; customers cannot
// read each other's orders.
func (s *OrderService) ListForCustomer(ctx context.Context, identity domain.Identity, email string) ([]*domain.Order, error) {
	if identity.Email != email {
		return nil, application.NewForbiddenError()
	}

	orders, err := s.orders.FindByCustomerEmail(ctx, email)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return orders, nil
}

// UpdateStatus applies a status/cancellation patch to an order. The
// transition rules live on the Order entity; this method only loads,
// applies and stores.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, patch domain.StatusPatch) (*application.UpdateOutcome, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, postgres.ErrOrderNotFound) {
			return nil, application.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
		}
		return nil, application.NewInternalError(err)
	}

	if err := order.ApplyStatusPatch(patch, time.Now()); err != nil {
		// Surface the domain rule verdict untouched; the handler maps
		// it to the right response body.
		return nil, err
	}

	outcome, err := s.orders.Update(ctx, order)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("order status updated",
		"order_id", orderID,
		"status", order.Status,
		"is_canceled", order.IsCanceled,
	)
	return outcome, nil
}
