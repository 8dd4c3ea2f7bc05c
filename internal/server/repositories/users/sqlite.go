package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/deferscky/stringeditor/internal/common"
	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (login, password_hash, created_at)
		 VALUES (?, ?, ?)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		user.Login, user.PasswordHash, dbx.ToMillis(user.CreatedAt)).Scan(&user.ID)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLiteRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	query :=
		`SELECT id, login, password_hash, created_at FROM users
		 WHERE login = ?`

	return r.scanOne(r.db.QueryRowContext(ctx, query, login))
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, login, password_hash, created_at FROM users
		 WHERE id = ?`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var createdAt int64

	err := row.Scan(&user.ID, &user.Login, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.CreatedAt = dbx.FromMillis(createdAt)
	return user, nil
}

func (r *SQLiteRepository) UpdatePasswordHash(ctx context.Context, id int64, oldHash, newHash string) error {
	query :=
		`UPDATE users SET password_hash = ?
		 WHERE id = ? AND password_hash = ?`

	res, err := r.db.ExecContext(ctx, query, newHash, id, oldHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64, passwordHash string) error {
	query :=
		`DELETE FROM users
		 WHERE id = ? AND password_hash = ?`

	res, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.User, error) {
	query :=
		`SELECT id, login, created_at FROM users
		 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		var u models.User
		var createdAt int64
		if err := rows.Scan(&u.ID, &u.Login, &createdAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		u.CreatedAt = dbx.FromMillis(createdAt)
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
