package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/bookcourier/book-courier-api/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func SeedOrder(t *testing.T, db *postgres.DB, customerEmail, bookID string) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(uuid.New().String(), customerEmail, bookID, time.Now())
	require.NoError(t, err)
	require.NoError(t, postgres.NewOrderRepository(db).Create(context.Background(), order))
	return order
}

func SeedBook(t *testing.T, db *postgres.DB, name, librarianEmail string) *domain.Book {
	t.Helper()
	book := &domain.Book{
		ID:             uuid.New().String(),
		Name:           name,
		Author:         "Test Author",
		LibrarianEmail: librarianEmail,
		PriceCents:     2500,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, postgres.NewBookRepository(db).Create(context.Background(), book))
	return book
}

func SeedUser(t *testing.T, db *postgres.DB, email, role string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      "Test User",
		Role:      role,
		CreatedAt: time.Now(),
	}
	require.NoError(t, postgres.NewUserRepository(db).Create(context.Background(), user))
	return user
}

func BuildPayment(t *testing.T, transactionID, orderID string) *domain.Payment {
	t.Helper()
	money, err := domain.NewMoney(1999, "usd")
	require.NoError(t, err)
	payment, err := domain.NewPayment(
		uuid.New().String(),
		transactionID,
		orderID,
		uuid.New().String(),
		"reader@example.com",
		money,
		"paid",
		"PRCL-20260901-AB12CD",
		time.Now(),
	)
	require.NoError(t, err)
	return payment
}
