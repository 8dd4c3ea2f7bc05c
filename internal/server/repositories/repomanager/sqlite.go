// Package repomanager provides the SQLite RepositoryManager, wiring together
// repository constructors and schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/filex"
	"github.com/deferscky/stringeditor/internal/server/migrations"
	"github.com/deferscky/stringeditor/internal/server/repositories/contents"
	"github.com/deferscky/stringeditor/internal/server/repositories/operations"
	"github.com/deferscky/stringeditor/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Contents(db dbx.DBTX) contents.Repository {
	return contents.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Operations(db dbx.DBTX) operations.Repository {
	return operations.NewSQLiteRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

func NewSQLiteRepositoryManager() RepositoryManager {
	return &SQLiteRepositoryManager{}
}

// Open prepares the database file at path: creates its directory, opens it
// and brings the schema up to date. The returned manager serves the pool.
func Open(ctx context.Context, path string) (*sql.DB, RepositoryManager, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, nil, fmt.Errorf("db dir: %w", err)
	}

	db, err := dbx.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}

	m := NewSQLiteRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, m, nil
}
