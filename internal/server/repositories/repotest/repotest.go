// Package repotest opens throwaway migrated databases for repository and
// service tests.
package repotest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

// NewDB returns a file-backed SQLite database in t.TempDir() with all
// migrations applied. It is closed on cleanup.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := dbx.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))

	return db
}

// InsertUser adds a user row directly and returns its id.
func InsertUser(t testing.TB, db dbx.DBTX, login string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO users (login, password_hash, created_at) VALUES (?, 'h', 0) RETURNING id`, login).Scan(&id)
	require.NoError(t, err)

	return id
}
