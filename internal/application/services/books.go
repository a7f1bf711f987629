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

// CreateBookCommand adds a catalog entry.
type CreateBookCommand struct {
	Name           string
	Author         string
	LibrarianEmail string
	PriceCents     int64
	CoverURL       string
	Description    string
}

// BookDeletion reports what removing a book took with it.
type BookDeletion struct {
	BooksDeleted  int64 `json:"bookDeleted"`
	OrdersDeleted int64 `json:"ordersDeleted"`
}

// BookService implements the catalog use cases.
type BookService struct {
	books  application.BookRepository
	orders application.OrderRepository
	logger *slog.Logger
}

func NewBookService(
	books application.BookRepository,
	orders application.OrderRepository,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		books:  books,
		orders: orders,
		logger: logger,
	}
}

func (s *BookService) Create(ctx context.Context, cmd CreateBookCommand) (*domain.Book, error) {
	switch {
	case cmd.Name == "":
		return nil, application.NewValidationError("name is required")
	case cmd.LibrarianEmail == "":
		return nil, application.NewValidationError("librarianEmail is required")
	case cmd.PriceCents < 0:
		return nil, application.NewValidationError("price must not be negative")
	}

	book := &domain.Book{
		ID:             uuid.New().String(),
		Name:           cmd.Name,
		Author:         cmd.Author,
		LibrarianEmail: cmd.LibrarianEmail,
		PriceCents:     cmd.PriceCents,
		CoverURL:       cmd.CoverURL,
		Description:    cmd.Description,
		CreatedAt:      time.Now(),
	}

	if err := s.books.Create(ctx, book); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("book created", "book_id", book.ID, "name", book.Name)
	return book, nil
}

func (s *BookService) Get(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrBookNotFound) {
			return nil, application.NewNotFoundError("Book not found")
		}
		return nil, application.NewInternalError(err)
	}
	return book, nil
}

func (s *BookService) List(ctx context.Context, filter application.BookFilter) ([]*domain.Book, error) {
	books, err := s.books.Find(ctx, filter)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return books, nil
}

func (s *BookService) Update(ctx context.Context, book *domain.Book) (*application.UpdateOutcome, error) {
	if book.ID == "" {
		return nil, application.NewValidationError("book id is required")
	}

	outcome, err := s.books.Update(ctx, book)
	if err != nil {
		if errors.Is(err, postgres.ErrBookNotFound) {
			return nil, application.NewNotFoundError("Book not found")
		}
		return nil, application.NewInternalError(err)
	}
	return outcome, nil
}

// Delete removes a book and every order placed against it. The order
// cleanup is best effort in sequence with the book delete; a missing
// book is a 404, matching the catalog's read surface.
func (s *BookService) Delete(ctx context.Context, id string) (*BookDeletion, error) {
	deleted, err := s.books.Delete(ctx, id)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if deleted == 0 {
		return nil, application.NewNotFoundError(fmt.Sprintf("book %s not found", id))
	}

	ordersDeleted, err := s.orders.DeleteByBookID(ctx, id)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("book deleted",
		"book_id", id,
		"orders_deleted", ordersDeleted,
	)
	return &BookDeletion{
		BooksDeleted:  deleted,
		OrdersDeleted: ordersDeleted,
	}, nil
}
