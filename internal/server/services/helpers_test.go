package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/deferscky/stringeditor/internal/cryptox"
	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/deferscky/stringeditor/internal/server/models"
	"github.com/deferscky/stringeditor/internal/server/repositories/operations"
	"github.com/deferscky/stringeditor/internal/server/repositories/repomanager"
	"github.com/deferscky/stringeditor/internal/server/repositories/repotest"
	"github.com/deferscky/stringeditor/internal/server/repositories/users"
	"github.com/deferscky/stringeditor/internal/server/sessions"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

var cheapParams = cryptox.Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

type testEnv struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	sessions *sessions.Table
	accounts *AccountService
	content  *ContentService
	history  *HistoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, repomanager.NewSQLiteRepositoryManager())
}

func newTestEnvWith(t *testing.T, rm repomanager.RepositoryManager) *testEnv {
	t.Helper()

	db := repotest.NewDB(t)
	table := sessions.New()
	log := logging.Discard()

	history := NewHistoryService(db, rm, nil, log)
	return &testEnv{
		db:       db,
		rm:       rm,
		sessions: table,
		accounts: NewAccountService(db, rm, table, cryptox.NewHasher(cheapParams), 6, nil, log),
		content:  NewContentService(db, rm, history, log),
		history:  history,
	}
}

// registerAndLogin registers login/password and returns the user id and a token.
func (e *testEnv) registerAndLogin(t *testing.T, login, password string) (int64, string) {
	t.Helper()
	ctx := context.Background()

	u, err := e.accounts.Register(ctx, login, password)
	require.NoError(t, err)

	token, err := e.accounts.Login(ctx, login, password)
	require.NoError(t, err)

	return u.ID, token
}

func (e *testEnv) storedHash(t *testing.T, id int64) string {
	t.Helper()
	u, err := e.rm.Users(e.db).GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return u.PasswordHash
}

func (e *testEnv) countRows(t *testing.T, table string, userID int64) int {
	t.Helper()
	var n int
	col := "user_id"
	if table == "users" {
		col = "id"
	}
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE `+col+` = ?`, userID).Scan(&n))
	return n
}

// removeUser deletes a user and its rows behind the services' back.
func (e *testEnv) removeUser(t *testing.T, id int64) {
	t.Helper()
	for _, q := range []string{
		`DELETE FROM string_operations WHERE user_id = ?`,
		`DELETE FROM user_strings WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		_, err := e.db.Exec(q, id)
		require.NoError(t, err)
	}
}

var errInjected = errors.New("injected failure")

// once returns a func that runs fn on its first call only.
func once(fn func()) func() {
	var o sync.Once
	return func() { o.Do(fn) }
}

// failingManager wraps a real manager and fails selected writes. The hooks
// run inside user lookups to stage races.
type failingManager struct {
	repomanager.RepositoryManager
	usersErr error
	opsErr   error

	beforeLoginLookup func()
	afterIDLookup     func()
}

func (m *failingManager) Users(db dbx.DBTX) users.Repository {
	return &failingUsers{
		Repository:        m.RepositoryManager.Users(db),
		err:               m.usersErr,
		beforeLoginLookup: m.beforeLoginLookup,
		afterIDLookup:     m.afterIDLookup,
	}
}

func (m *failingManager) Operations(db dbx.DBTX) operations.Repository {
	return &failingOperations{Repository: m.RepositoryManager.Operations(db), err: m.opsErr}
}

type failingUsers struct {
	users.Repository
	err error

	beforeLoginLookup func()
	afterIDLookup     func()
}

func (f *failingUsers) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	if f.beforeLoginLookup != nil {
		f.beforeLoginLookup()
	}
	return f.Repository.GetUserByLogin(ctx, login)
}

func (f *failingUsers) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := f.Repository.GetUserByID(ctx, id)
	if f.afterIDLookup != nil {
		f.afterIDLookup()
	}
	return u, err
}

func (f *failingUsers) UpdatePasswordHash(ctx context.Context, id int64, oldHash, newHash string) error {
	if f.err != nil {
		return f.err
	}
	return f.Repository.UpdatePasswordHash(ctx, id, oldHash, newHash)
}

func (f *failingUsers) Delete(ctx context.Context, id int64, passwordHash string) error {
	if f.err != nil {
		return f.err
	}
	return f.Repository.Delete(ctx, id, passwordHash)
}

type failingOperations struct {
	operations.Repository
	err error
}

func (f *failingOperations) Create(ctx context.Context, op *models.Operation) (*models.Operation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.Repository.Create(ctx, op)
}
