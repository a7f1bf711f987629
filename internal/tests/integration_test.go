package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/persistence/postgres"
	"github.com/bookcourier/book-courier-api/internal/tests/testhelpers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type RepositorySuite struct {
	suite.Suite
	db *postgres.DB
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests")
	}
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.db = testhelpers.StartPostgres(s.T())
}

func (s *RepositorySuite) SetupTest() {
	testhelpers.CleanTables(s.T(), s.db)
}

func (s *RepositorySuite) TestOrderLifecycle() {
	ctx := context.Background()
	repo := postgres.NewOrderRepository(s.db)

	order := testhelpers.SeedOrder(s.T(), s.db, "reader@example.com", uuid.New().String())
	s.NotEmpty(order.ID)

	loaded, err := repo.FindByID(ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(domain.OrderPending, loaded.Status)
	s.Equal("unpaid", loaded.PaymentStatus)
	s.Nil(loaded.TrackingID)

	shifted := domain.OrderShifted
	s.Require().NoError(loaded.ApplyStatusPatch(domain.StatusPatch{Status: &shifted}, time.Now()))

	outcome, err := repo.Update(ctx, loaded)
	s.Require().NoError(err)
	s.Equal(int64(1), outcome.MatchedCount)
	s.Equal(int64(1), outcome.ModifiedCount)

	reloaded, err := repo.FindByID(ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(domain.OrderShifted, reloaded.Status)
}

func (s *RepositorySuite) TestOrderTrackingIDImmutable() {
	ctx := context.Background()
	repo := postgres.NewOrderRepository(s.db)
	order := testhelpers.SeedOrder(s.T(), s.db, "reader@example.com", uuid.New().String())

	loaded, err := repo.FindByID(ctx, order.ID)
	s.Require().NoError(err)
	loaded.ConfirmPayment("PRCL-20260901-AAAAAA", time.Now())
	_, err = repo.Update(ctx, loaded)
	s.Require().NoError(err)

	// A second confirmation attempt must not replace the tracking id.
	second, err := repo.FindByID(ctx, order.ID)
	s.Require().NoError(err)
	second.TrackingID = nil
	second.ConfirmPayment("PRCL-20260901-BBBBBB", time.Now())
	_, err = repo.Update(ctx, second)
	s.Require().NoError(err)

	final, err := repo.FindByID(ctx, order.ID)
	s.Require().NoError(err)
	s.Require().NotNil(final.TrackingID)
	s.Equal("PRCL-20260901-AAAAAA", *final.TrackingID)
}

func (s *RepositorySuite) TestOrderUnknownID() {
	repo := postgres.NewOrderRepository(s.db)

	_, err := repo.FindByID(context.Background(), uuid.New().String())
	s.ErrorIs(err, postgres.ErrOrderNotFound)

	ghost, err := domain.NewOrder(uuid.New().String(), "reader@example.com", uuid.New().String(), time.Now())
	s.Require().NoError(err)
	_, err = repo.Update(context.Background(), ghost)
	s.ErrorIs(err, postgres.ErrOrderNotFound)
}

func (s *RepositorySuite) TestFindUnpaidWithSession() {
	ctx := context.Background()
	repo := postgres.NewOrderRepository(s.db)

	stale := testhelpers.SeedOrder(s.T(), s.db, "reader@example.com", uuid.New().String())
	s.Require().NoError(repo.SetCheckoutSession(ctx, stale.ID, "cs_stale"))

	// No session: never reconciled.
	testhelpers.SeedOrder(s.T(), s.db, "reader@example.com", uuid.New().String())

	// Paid: already settled.
	paid := testhelpers.SeedOrder(s.T(), s.db, "reader@example.com", uuid.New().String())
	s.Require().NoError(repo.SetCheckoutSession(ctx, paid.ID, "cs_paid"))
	loaded, err := repo.FindByID(ctx, paid.ID)
	s.Require().NoError(err)
	loaded.ConfirmPayment("PRCL-20260901-CCCCCC", time.Now())
	_, err = repo.Update(ctx, loaded)
	s.Require().NoError(err)

	found, err := repo.FindUnpaidWithSession(ctx, time.Now().Add(time.Minute), 10)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(stale.ID, found[0].ID)

	// A cutoff in the past excludes fresh orders.
	found, err = repo.FindUnpaidWithSession(ctx, time.Now().Add(-time.Hour), 10)
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *RepositorySuite) TestPaymentLedgerUniqueness() {
	ctx := context.Background()
	repo := postgres.NewPaymentRepository(s.db)
	order := testhelpers.SeedOrder(s.T(), s.db, "reader@example.com", uuid.New().String())

	payment := testhelpers.BuildPayment(s.T(), "pi_unique_1", order.ID)
	s.Require().NoError(repo.Insert(ctx, payment))

	duplicate := testhelpers.BuildPayment(s.T(), "pi_unique_1", order.ID)
	err := repo.Insert(ctx, duplicate)
	s.True(domain.IsErrorCode(err, domain.ErrCodeDuplicateTransaction))

	stored, err := repo.FindByTransactionID(ctx, "pi_unique_1")
	s.Require().NoError(err)
	s.Equal(payment.ID, stored.ID)
	s.Equal(payment.TrackingID, stored.TrackingID)

	_, err = repo.FindByTransactionID(ctx, "pi_absent")
	s.ErrorIs(err, postgres.ErrPaymentNotFound)
}

func (s *RepositorySuite) TestTransactionRollsBackOrderMutation() {
	ctx := context.Background()
	orderRepo := postgres.NewOrderRepository(s.db)
	paymentRepo := postgres.NewPaymentRepository(s.db)
	coordinator := postgres.NewTransactionCoordinator(s.db)

	order := testhelpers.SeedOrder(s.T(), s.db, "reader@example.com", uuid.New().String())
	winner := testhelpers.BuildPayment(s.T(), "pi_race_1", order.ID)
	s.Require().NoError(paymentRepo.Insert(ctx, winner))

	err := coordinator.WithTransaction(ctx, func(ctx context.Context, orders application.OrderRepository, payments application.PaymentRepository) error {
		loaded, err := orders.FindByID(ctx, order.ID)
		if err != nil {
			return err
		}
		loaded.ConfirmPayment("PRCL-20260901-DDDDDD", time.Now())
		if _, err := orders.Update(ctx, loaded); err != nil {
			return err
		}
		return payments.Insert(ctx, testhelpers.BuildPayment(s.T(), "pi_race_1", order.ID))
	})
	s.True(domain.IsErrorCode(err, domain.ErrCodeDuplicateTransaction))

	// The order mutation rolled back with the failed insert.
	reloaded, err := orderRepo.FindByID(ctx, order.ID)
	s.Require().NoError(err)
	s.Equal("unpaid", reloaded.PaymentStatus)
	s.Nil(reloaded.TrackingID)
}

// Concurrent confirmations of the same transaction: the unique
// constraint lets exactly one commit through.
func (s *RepositorySuite) TestConcurrentLedgerInserts() {
	const workers = 8

	ctx := context.Background()
	coordinator := postgres.NewTransactionCoordinator(s.db)
	order := testhelpers.SeedOrder(s.T(), s.db, "reader@example.com", uuid.New().String())

	var wg sync.WaitGroup
	errs := make([]error, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = coordinator.WithTransaction(ctx, func(ctx context.Context, orders application.OrderRepository, payments application.PaymentRepository) error {
				loaded, err := orders.FindByID(ctx, order.ID)
				if err != nil {
					return err
				}
				loaded.ConfirmPayment("PRCL-20260901-EEEEEE", time.Now())
				if _, err := orders.Update(ctx, loaded); err != nil {
					return err
				}
				return payments.Insert(ctx, testhelpers.BuildPayment(s.T(), "pi_concurrent_1", order.ID))
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var committed, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		case domain.IsErrorCode(err, domain.ErrCodeDuplicateTransaction):
			conflicted++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, committed)
	s.Equal(workers-1, conflicted)

	var count int
	err := s.db.Pool.QueryRow(ctx,
		"SELECT count(*) FROM payments WHERE transaction_id = $1", "pi_concurrent_1").Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *RepositorySuite) TestBookFilterAndCascade() {
	ctx := context.Background()
	bookRepo := postgres.NewBookRepository(s.db)
	orderRepo := postgres.NewOrderRepository(s.db)

	dune := testhelpers.SeedBook(s.T(), s.db, "Dune", "a@example.com")
	testhelpers.SeedBook(s.T(), s.db, "Hyperion", "b@example.com")

	byLibrarian, err := bookRepo.Find(ctx, application.BookFilter{LibrarianEmail: "a@example.com"})
	s.Require().NoError(err)
	s.Require().Len(byLibrarian, 1)
	s.Equal("Dune", byLibrarian[0].Name)

	bySearch, err := bookRepo.Find(ctx, application.BookFilter{SearchText: "hyper"})
	s.Require().NoError(err)
	s.Require().Len(bySearch, 1)
	s.Equal("Hyperion", bySearch[0].Name)

	testhelpers.SeedOrder(s.T(), s.db, "reader@example.com", dune.ID)
	testhelpers.SeedOrder(s.T(), s.db, "reader@example.com", dune.ID)

	deleted, err := bookRepo.Delete(ctx, dune.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	ordersDeleted, err := orderRepo.DeleteByBookID(ctx, dune.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), ordersDeleted)
}

func (s *RepositorySuite) TestUserEmailUnique() {
	ctx := context.Background()
	repo := postgres.NewUserRepository(s.db)

	testhelpers.SeedUser(s.T(), s.db, "reader@example.com", "user")

	err := repo.Create(ctx, &domain.User{
		ID:        uuid.New().String(),
		Email:     "reader@example.com",
		Role:      "user",
		CreatedAt: time.Now(),
	})
	s.True(postgres.IsUniqueViolation(err))

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	s.True(errors.Is(err, postgres.ErrUserNotFound))
}
