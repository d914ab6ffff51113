// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/portfolio/internal/db"
)

// New returns a fresh, fully migrated database private to the test.
func New(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	database, err := db.Init(ctx, "sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	// One connection keeps the shared-cache database alive and serializes
	// writers, which SQLite would otherwise reject with SQLITE_LOCKED.
	database.SetMaxOpenConns(1)

	err = db.RunMigrations(ctx, database.DB, "sqlite")
	require.NoError(t, err)

	return database
}
