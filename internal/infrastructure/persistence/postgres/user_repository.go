package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	q Executor
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (email, name, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		user.Email,
		user.Name,
		user.Role,
		user.CreatedAt,
	).Scan(&user.ID)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, name, role, created_at FROM users WHERE email = $1`

	var m UserModel
	err := r.q.QueryRow(ctx, query, email).Scan(
		&m.ID, &m.Email, &m.Name, &m.Role, &m.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT id, email, name, role, created_at FROM users ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.User, error) {
		var m UserModel
		err := row.Scan(&m.ID, &m.Email, &m.Name, &m.Role, &m.CreatedAt)
		return toDomainUser(m), err
	})

	if err != nil {
		return nil, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, nil
}

// Update patches name and/or role. Nil fields are left untouched.
func (r *UserRepository) Update(ctx context.Context, id string, name, role *string) (*application.UpdateOutcome, error) {
	query := `
		UPDATE users
		SET name = COALESCE($1, name),
			role = COALESCE($2, role)
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, name, role, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	return &application.UpdateOutcome{
		MatchedCount:  rowsAffected,
		ModifiedCount: rowsAffected,
	}, nil
}
