package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/application/services"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderRepo struct {
	application.OrderRepository

	stale   []*domain.Order
	findErr error
}

func (s *stubOrderRepo) FindUnpaidWithSession(_ context.Context, _ time.Time, _ int) ([]*domain.Order, error) {
	return s.stale, s.findErr
}

type stubConfirm struct {
	mu       sync.Mutex
	sessions []string
	result   *services.ConfirmationResult
	err      error
}

func (s *stubConfirm) Confirm(_ context.Context, sessionRef string) (*services.ConfirmationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, sessionRef)
	return s.result, s.err
}

func staleOrder(t *testing.T, id, sessionID string) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, "reader@example.com", "book-1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	order.CheckoutSessionID = &sessionID
	return order
}

func newTestReconciler(orders *stubOrderRepo, confirm *stubConfirm) *Reconciler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReconciler(orders, confirm, time.Minute, 50, 10*time.Minute, logger)
}

func TestReconciler_RunOnce(t *testing.T) {
	t.Run("drives each stale order through confirm", func(t *testing.T) {
		orders := &stubOrderRepo{stale: []*domain.Order{
			staleOrder(t, "order-1", "cs_1"),
			staleOrder(t, "order-2", "cs_2"),
		}}
		confirm := &stubConfirm{result: &services.ConfirmationResult{Success: true, TrackingID: "PRCL-20260901-AB12CD"}}

		newTestReconciler(orders, confirm).RunOnce(context.Background())

		assert.Equal(t, []string{"cs_1", "cs_2"}, confirm.sessions)
	})

	t.Run("confirm failure does not stop the sweep", func(t *testing.T) {
		orders := &stubOrderRepo{stale: []*domain.Order{
			staleOrder(t, "order-1", "cs_1"),
			staleOrder(t, "order-2", "cs_2"),
		}}
		confirm := &stubConfirm{err: errors.New("gateway unavailable")}

		newTestReconciler(orders, confirm).RunOnce(context.Background())

		assert.Len(t, confirm.sessions, 2)
	})

	t.Run("fetch failure skips the sweep", func(t *testing.T) {
		orders := &stubOrderRepo{findErr: errors.New("connection reset")}
		confirm := &stubConfirm{}

		newTestReconciler(orders, confirm).RunOnce(context.Background())

		assert.Empty(t, confirm.sessions)
	})

	t.Run("orders without a session are skipped", func(t *testing.T) {
		order, err := domain.NewOrder("order-1", "reader@example.com", "book-1", time.Now())
		require.NoError(t, err)
		orders := &stubOrderRepo{stale: []*domain.Order{order}}
		confirm := &stubConfirm{}

		newTestReconciler(orders, confirm).RunOnce(context.Background())

		assert.Empty(t, confirm.sessions)
	})
}

func TestReconciler_StopsOnContextCancel(t *testing.T) {
	orders := &stubOrderRepo{}
	confirm := &stubConfirm{}
	reconciler := NewReconciler(orders, confirm, 10*time.Millisecond, 50, time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reconciler.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after context cancellation")
	}
}
