package gateway

import (
	"context"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/config"
	"github.com/cenkalti/backoff/v4"
)

// RetryGatewayClient decorates a gateway client with exponential
// backoff on transient failures. Only session retrieval is retried:
// it is a read and safe to repeat, while session creation carries no
// idempotency key and must not be replayed blindly.
type RetryGatewayClient struct {
	inner application.PaymentGateway
	cfg   config.RetryConfig
}

func NewRetryGatewayClient(inner application.PaymentGateway, cfg config.RetryConfig) *RetryGatewayClient {
	return &RetryGatewayClient{
		inner: inner,
		cfg:   cfg,
	}
}

func (r *RetryGatewayClient) CreateCheckoutSession(ctx context.Context, req application.CreateSessionRequest) (*application.CheckoutSession, error) {
	return r.inner.CreateCheckoutSession(ctx, req)
}

func (r *RetryGatewayClient) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*application.CheckoutSession, error) {
	var session *application.CheckoutSession

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(r.cfg.InitialInterval),
		backoff.WithMaxInterval(r.cfg.MaxInterval),
		backoff.WithMaxElapsedTime(r.cfg.MaxElapsedTime),
	)

	operation := func() error {
		var err error
		session, err = r.inner.RetrieveCheckoutSession(ctx, sessionID)
		if err != nil {
			if gwErr, ok := IsGatewayError(err); ok && !gwErr.IsRetryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}

	return session, nil
}
