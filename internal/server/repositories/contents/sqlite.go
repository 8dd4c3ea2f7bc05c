// Package contents persists the per-user list of text lines.
package contents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deferscky/stringeditor/internal/dbx"
)

// insertBatch keeps a multi-row INSERT well below SQLite's bound-variable cap.
const insertBatch = 500

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) InsertMany(ctx context.Context, userID int64, lines []string, createdAt time.Time) error {
	ts := dbx.ToMillis(createdAt)

	for start := 0; start < len(lines); start += insertBatch {
		end := min(start+insertBatch, len(lines))
		chunk := lines[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO user_strings (user_id, content, created_at) VALUES `)
		args := make([]any, 0, len(chunk)*3)
		for i, line := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?)")
			args = append(args, userID, line, ts)
		}

		if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, userID int64) ([]string, error) {
	query :=
		`SELECT content FROM user_strings
		 WHERE user_id = ?
		 ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_strings WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}
