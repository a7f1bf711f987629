package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrBookNotFound = errors.New("book not found")

type BookRepository struct {
	q Executor
}

func NewBookRepository(db *DB) *BookRepository {
	return &BookRepository{q: db.Pool}
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (
			name, author, librarian_email, price_cents,
			cover_url, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		book.Name,
		book.Author,
		book.LibrarianEmail,
		book.PriceCents,
		book.CoverURL,
		book.Description,
		book.CreatedAt,
	).Scan(&book.ID)

	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

func (r *BookRepository) FindByID(ctx context.Context, id string) (*domain.Book, error) {
	query := bookSelect + ` WHERE id = $1`

	var m BookModel
	err := r.q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.Author, &m.LibrarianEmail,
		&m.PriceCents, &m.CoverURL, &m.Description, &m.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}
	return toDomainBook(m), nil
}

// Find lists catalog entries, newest first. Filters combine: librarian
// email narrows to one librarian's catalog, search text matches book
// name or librarian email case-insensitively.
func (r *BookRepository) Find(ctx context.Context, filter application.BookFilter) ([]*domain.Book, error) {
	query := bookSelect + ` WHERE 1=1`
	args := []any{}

	if filter.LibrarianEmail != "" {
		args = append(args, filter.LibrarianEmail)
		query += fmt.Sprintf(" AND librarian_email = $%d", len(args))
	}
	if filter.SearchText != "" {
		args = append(args, "%"+filter.SearchText+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR librarian_email ILIKE $%d)", len(args), len(args))
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Book, error) {
		var m BookModel
		err := row.Scan(
			&m.ID, &m.Name, &m.Author, &m.LibrarianEmail,
			&m.PriceCents, &m.CoverURL, &m.Description, &m.CreatedAt,
		)
		return toDomainBook(m), err
	})

	if err != nil {
		return nil, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, nil
}

func (r *BookRepository) Update(ctx context.Context, book *domain.Book) (*application.UpdateOutcome, error) {
	query := `
		UPDATE books
		SET name = $1, author = $2, price_cents = $3,
			cover_url = $4, description = $5
		WHERE id = $6
	`

	result, err := r.q.Exec(ctx, query,
		book.Name,
		book.Author,
		book.PriceCents,
		book.CoverURL,
		book.Description,
		book.ID,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	rowsAffected := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, ErrBookNotFound
	}

	return &application.UpdateOutcome{
		MatchedCount:  rowsAffected,
		ModifiedCount: rowsAffected,
	}, nil
}

func (r *BookRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete book: %w", err)
	}

	return result.RowsAffected(), nil
}

const bookSelect = `
	SELECT id, name, author, librarian_email, price_cents,
	       cover_url, description, created_at
	FROM books`
