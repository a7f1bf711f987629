package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCheckoutCommand() CreateCheckoutCommand {
	return CreateCheckoutCommand{
		OrderID:       "order-1",
		BookID:        "book-1",
		BookName:      "The Go Programming Language",
		AmountCents:   4999,
		CustomerEmail: "reader@example.com",
	}
}

func TestCheckoutService_CreateSession(t *testing.T) {
	store := newMemStore()
	gateway := &stubGateway{}
	svc := NewCheckoutService(&memOrderRepo{store: store}, gateway, testLogger())

	order, err := domain.NewOrder("order-1", "reader@example.com", "book-1", time.Now())
	require.NoError(t, err)
	require.NoError(t, (&memOrderRepo{store: store}).Create(context.Background(), order))

	url, err := svc.CreateSession(context.Background(), validCheckoutCommand())
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.test/cs_test_1", url)
	assert.Equal(t, 1, gateway.createCalls)

	stored := store.orders["order-1"]
	require.NotNil(t, stored.CheckoutSessionID)
	assert.Equal(t, "cs_test_1", *stored.CheckoutSessionID)
}

func TestCheckoutService_CreateSession_Validation(t *testing.T) {
	svc := NewCheckoutService(&memOrderRepo{store: newMemStore()}, &stubGateway{}, testLogger())

	tests := []struct {
		name   string
		mutate func(*CreateCheckoutCommand)
	}{
		{"missing order id", func(c *CreateCheckoutCommand) { c.OrderID = "" }},
		{"missing book id", func(c *CreateCheckoutCommand) { c.BookID = "" }},
		{"missing book name", func(c *CreateCheckoutCommand) { c.BookName = "" }},
		{"missing email", func(c *CreateCheckoutCommand) { c.CustomerEmail = "" }},
		{"zero amount", func(c *CreateCheckoutCommand) { c.AmountCents = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validCheckoutCommand()
			tt.mutate(&cmd)

			_, err := svc.CreateSession(context.Background(), cmd)
			svcErr, ok := application.IsServiceError(err)
			require.True(t, ok)
			assert.Equal(t, application.ErrCodeValidation, svcErr.Code)
		})
	}
}

func TestCheckoutService_CreateSession_UnknownOrder(t *testing.T) {
	svc := NewCheckoutService(&memOrderRepo{store: newMemStore()}, &stubGateway{}, testLogger())

	_, err := svc.CreateSession(context.Background(), validCheckoutCommand())
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeNotFound, svcErr.Code)
}

func TestCheckoutService_CreateSession_GatewayDown(t *testing.T) {
	store := newMemStore()
	gateway := &stubGateway{createErr: errors.New("connection refused")}
	svc := NewCheckoutService(&memOrderRepo{store: store}, gateway, testLogger())

	order, err := domain.NewOrder("order-1", "reader@example.com", "book-1", time.Now())
	require.NoError(t, err)
	require.NoError(t, (&memOrderRepo{store: store}).Create(context.Background(), order))

	_, err = svc.CreateSession(context.Background(), validCheckoutCommand())
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeUpstream, svcErr.Code)

	// No session was linked.
	assert.Nil(t, store.orders["order-1"].CheckoutSessionID)
}
