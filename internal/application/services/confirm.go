// Package services orchestrates the courier's use cases over the
// persistence and gateway ports.
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
	"github.com/bookcourier/book-courier-api/internal/metrics"
	"github.com/google/uuid"
)

// TxRunner executes a unit of work against transaction-bound
// repositories. The order mutation and the ledger insert of a
// confirmation commit or roll back together.
type TxRunner interface {
	WithTransaction(
		ctx context.Context,
		fn func(ctx context.Context, orders application.OrderRepository, payments application.PaymentRepository) error,
	) error
}

// ConfirmationResult is the outcome of one confirmation attempt.
type ConfirmationResult struct {
	// AlreadyProcessed marks an idempotent replay: the transaction was
	// recorded before, by this request or a racing one.
	AlreadyProcessed bool
	Success          bool
	TransactionID    string
	TrackingID       string
	OrderOutcome     *application.UpdateOutcome
	Payment          *domain.Payment
}

// ConfirmService reconciles payment-session notifications with the
// order store and the payment ledger, exactly once per transaction,
// however many times a notification is delivered.
type ConfirmService struct {
	orders   application.OrderRepository
	payments application.PaymentRepository
	gateway  application.PaymentGateway
	tx       TxRunner
	logger   *slog.Logger
}

func NewConfirmService(
	orders application.OrderRepository,
	payments application.PaymentRepository,
	gateway application.PaymentGateway,
	tx TxRunner,
	logger *slog.Logger,
) *ConfirmService {
	return &ConfirmService{
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		tx:       tx,
		logger:   logger,
	}
}

// Confirm resolves the checkout session behind sessionRef and settles
// it against the order store and the payment ledger.
//
// The ledger read is only a fast path: two confirmations for the same
// transaction can both pass it concurrently. The unique constraint on
// the ledger's transaction id is what actually decides the race; the
// loser's whole transaction rolls back and its attempt is answered
// from the winner's record.
func (s *ConfirmService) Confirm(ctx context.Context, sessionRef string) (*ConfirmationResult, error) {
	if sessionRef == "" {
		return nil, application.NewValidationError("session_id is required")
	}

	session, err := s.gateway.RetrieveCheckoutSession(ctx, sessionRef)
	if err != nil {
		metrics.ConfirmationsTotal.WithLabelValues(metrics.ConfirmOutcomeUpstreamError).Inc()
		return nil, application.NewUpstreamError(err)
	}
	if session.TransactionID == "" || session.OrderID == "" {
		metrics.ConfirmationsTotal.WithLabelValues(metrics.ConfirmOutcomeUpstreamError).Inc()
		return nil, application.NewUpstreamError(
			fmt.Errorf("session %s is missing transaction or order metadata", sessionRef))
	}

	existing, err := s.payments.FindByTransactionID(ctx, session.TransactionID)
	if err == nil {
		s.logger.Info("payment already recorded",
			"transaction_id", session.TransactionID,
			"tracking_id", existing.TrackingID,
		)
		metrics.ConfirmationsTotal.WithLabelValues(metrics.ConfirmOutcomeDuplicate).Inc()
		return alreadyProcessedResult(existing), nil
	}
	if !errors.Is(err, postgres.ErrPaymentNotFound) {
		return nil, application.NewInternalError(err)
	}

	if !session.Paid() {
		metrics.ConfirmationsTotal.WithLabelValues(metrics.ConfirmOutcomeUnpaid).Inc()
		return &ConfirmationResult{
			Success:       false,
			TransactionID: session.TransactionID,
		}, nil
	}

	now := time.Now()
	trackingID, err := domain.GenerateTrackingID(now)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	money, err := domain.NewMoney(session.AmountTotal, session.Currency)
	if err != nil {
		return nil, application.NewUpstreamError(fmt.Errorf("session %s carries invalid amount: %w", sessionRef, err))
	}

	payment, err := domain.NewPayment(
		uuid.New().String(),
		session.TransactionID,
		session.OrderID,
		session.BookID,
		session.CustomerEmail,
		money,
		session.PaymentStatus,
		trackingID,
		now,
	)
	if err != nil {
		return nil, application.NewUpstreamError(err)
	}

	var outcome *application.UpdateOutcome
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, orders application.OrderRepository, payments application.PaymentRepository) error {
		order, err := orders.FindByID(ctx, session.OrderID)
		if err != nil {
			if errors.Is(err, postgres.ErrOrderNotFound) {
				return application.NewNotFoundError(fmt.Sprintf("order %s not found", session.OrderID))
			}
			return application.NewInternalError(err)
		}

		order.ConfirmPayment(trackingID, now)

		outcome, err = orders.Update(ctx, order)
		if err != nil {
			return application.NewInternalError(err)
		}

		// Commit point. A duplicate here means a concurrent request
		// won; our order mutation rolls back with us.
		return payments.Insert(ctx, payment)
	})

	if err != nil {
		if domain.IsErrorCode(err, domain.ErrCodeDuplicateTransaction) {
			winner, ferr := s.payments.FindByTransactionID(ctx, session.TransactionID)
			if ferr != nil {
				return nil, application.NewInternalError(ferr)
			}
			s.logger.Info("lost confirmation race, replaying recorded payment",
				"transaction_id", session.TransactionID,
				"tracking_id", winner.TrackingID,
			)
			metrics.ConfirmationsTotal.WithLabelValues(metrics.ConfirmOutcomeDuplicate).Inc()
			return alreadyProcessedResult(winner), nil
		}
		if _, ok := application.IsServiceError(err); ok {
			return nil, err
		}
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("payment confirmed",
		"transaction_id", payment.TransactionID,
		"order_id", payment.OrderID,
		"tracking_id", trackingID,
	)
	metrics.ConfirmationsTotal.WithLabelValues(metrics.ConfirmOutcomeConfirmed).Inc()

	return &ConfirmationResult{
		Success:       true,
		TransactionID: payment.TransactionID,
		TrackingID:    trackingID,
		OrderOutcome:  outcome,
		Payment:       payment,
	}, nil
}

func alreadyProcessedResult(p *domain.Payment) *ConfirmationResult {
	return &ConfirmationResult{
		AlreadyProcessed: true,
		TransactionID:    p.TransactionID,
		TrackingID:       p.TrackingID,
		Payment:          p,
	}
}
