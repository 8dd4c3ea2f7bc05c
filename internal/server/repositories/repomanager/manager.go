package repomanager

import (
	"context"
	"database/sql"

	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/server/repositories/contents"
	"github.com/deferscky/stringeditor/internal/server/repositories/operations"
	"github.com/deferscky/stringeditor/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or an open
// transaction, so services can run several of them atomically.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Contents(db dbx.DBTX) contents.Repository
	Operations(db dbx.DBTX) operations.Repository
}
