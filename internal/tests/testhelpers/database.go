// Package testhelpers spins up a throwaway postgres container for the
// integration suite and seeds domain fixtures.
package testhelpers

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/bookcourier/book-courier-api/internal/infrastructure/persistence/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationPath resolves db/migrations/001_init.up.sql relative to this
// file, so the suite runs from any working directory.
func migrationPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "db", "migrations", "001_init.up.sql")
}

// StartPostgres runs a postgres container with the schema applied and
// returns a connected DB. The container is torn down when the test
// finishes.
func StartPostgres(t *testing.T) *postgres.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithInitScripts(migrationPath()),
		tcpostgres.WithDatabase("book_courier"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	db := postgres.NewDB(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(db.Close)
	return db
}

// CleanTables empties every table between test cases.
func CleanTables(t *testing.T, db *postgres.DB) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(),
		"TRUNCATE payments, orders, books, users")
	require.NoError(t, err)
}
