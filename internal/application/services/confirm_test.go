package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type confirmFixture struct {
	store   *memStore
	gateway *stubGateway
	service *ConfirmService
}

func newConfirmFixture(session *application.CheckoutSession) *confirmFixture {
	store := newMemStore()
	gateway := &stubGateway{session: session}
	service := NewConfirmService(
		&memOrderRepo{store: store},
		&memPaymentRepo{store: store},
		gateway,
		&memTx{store: store},
		testLogger(),
	)
	return &confirmFixture{store: store, gateway: gateway, service: service}
}

func (f *confirmFixture) seedOrder(t *testing.T, id string) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, "reader@example.com", "book-1", time.Now())
	require.NoError(t, err)
	require.NoError(t, (&memOrderRepo{store: f.store}).Create(context.Background(), order))
	return order
}

func paidSession(orderID string) *application.CheckoutSession {
	return &application.CheckoutSession{
		ID:            "cs_test_1",
		TransactionID: "pi_test_1",
		PaymentStatus: "paid",
		AmountTotal:   1999,
		Currency:      "usd",
		CustomerEmail: "reader@example.com",
		BookID:        "book-1",
		OrderID:       orderID,
	}
}

func TestConfirm_PaidSession(t *testing.T) {
	f := newConfirmFixture(paidSession("order-1"))
	f.seedOrder(t, "order-1")

	result, err := f.service.Confirm(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, "pi_test_1", result.TransactionID)
	assert.Regexp(t, `^PRCL-\d{8}-[0-9A-F]{6}$`, result.TrackingID)
	require.NotNil(t, result.OrderOutcome)
	assert.Equal(t, int64(1), result.OrderOutcome.MatchedCount)

	order, err := (&memOrderRepo{store: f.store}).FindByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "paid", order.PaymentStatus)
	require.NotNil(t, order.TrackingID)
	assert.Equal(t, result.TrackingID, *order.TrackingID)

	ledger, err := (&memPaymentRepo{store: f.store}).FindByTransactionID(context.Background(), "pi_test_1")
	require.NoError(t, err)
	assert.Equal(t, result.TrackingID, ledger.TrackingID)
	assert.Equal(t, int64(1999), ledger.AmountCents)
}

func TestConfirm_UnpaidSession(t *testing.T) {
	session := paidSession("order-1")
	session.PaymentStatus = "unpaid"
	f := newConfirmFixture(session)
	f.seedOrder(t, "order-1")

	result, err := f.service.Confirm(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.False(t, result.AlreadyProcessed)
	assert.Empty(t, result.TrackingID)

	// Nothing was written.
	order, err := (&memOrderRepo{store: f.store}).FindByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "unpaid", order.PaymentStatus)
	assert.Nil(t, order.TrackingID)
	_, err = (&memPaymentRepo{store: f.store}).FindByTransactionID(context.Background(), "pi_test_1")
	assert.Error(t, err)
}

func TestConfirm_Replay(t *testing.T) {
	f := newConfirmFixture(paidSession("order-1"))
	f.seedOrder(t, "order-1")

	first, err := f.service.Confirm(context.Background(), "cs_test_1")
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := f.service.Confirm(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.True(t, second.AlreadyProcessed)
	assert.False(t, second.Success)
	assert.Equal(t, first.TrackingID, second.TrackingID)
}

func TestConfirm_OrderMissing(t *testing.T) {
	f := newConfirmFixture(paidSession("order-ghost"))

	_, err := f.service.Confirm(context.Background(), "cs_test_1")
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeNotFound, svcErr.Code)

	// The rolled-back attempt must not leave a ledger entry behind.
	_, err = (&memPaymentRepo{store: f.store}).FindByTransactionID(context.Background(), "pi_test_1")
	assert.Error(t, err)
}

func TestConfirm_GatewayFailure(t *testing.T) {
	f := newConfirmFixture(nil)
	f.gateway.retrieveErr = errors.New("connection refused")

	_, err := f.service.Confirm(context.Background(), "cs_test_1")
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeUpstream, svcErr.Code)
}

func TestConfirm_MissingSessionRef(t *testing.T) {
	f := newConfirmFixture(paidSession("order-1"))

	_, err := f.service.Confirm(context.Background(), "")
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeValidation, svcErr.Code)
	assert.Equal(t, 0, f.gateway.retrieveCalls)
}

func TestConfirm_SessionMissingMetadata(t *testing.T) {
	session := paidSession("order-1")
	session.TransactionID = ""
	f := newConfirmFixture(session)

	_, err := f.service.Confirm(context.Background(), "cs_test_1")
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeUpstream, svcErr.Code)
}

// Many deliveries of the same payment notification must yield exactly
// one ledger entry, one successful result, and one tracking id.
func TestConfirm_ConcurrentDeliveries(t *testing.T) {
	const workers = 16

	f := newConfirmFixture(paidSession("order-1"))
	f.seedOrder(t, "order-1")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*ConfirmationResult
	)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			result, err := f.service.Confirm(context.Background(), "cs_test_1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, results, workers)

	var successes, replays int
	trackingIDs := make(map[string]struct{})
	for _, r := range results {
		if r.Success {
			successes++
		}
		if r.AlreadyProcessed {
			replays++
		}
		trackingIDs[r.TrackingID] = struct{}{}
	}

	assert.Equal(t, 1, successes, "exactly one delivery wins")
	assert.Equal(t, workers-1, replays, "every other delivery replays the winner")
	assert.Len(t, trackingIDs, 1, "all deliveries report the same tracking id")

	require.Len(t, f.store.payments, 1)
	order, err := (&memOrderRepo{store: f.store}).FindByID(context.Background(), "order-1")
	require.NoError(t, err)
	require.NotNil(t, order.TrackingID)
	_, sameID := trackingIDs[*order.TrackingID]
	assert.True(t, sameID, "order carries the ledger's tracking id")
}
