// Package operations stores the audit log of string operations.
package operations

import (
	"context"
	"fmt"

	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, op *models.Operation) (*models.Operation, error) {
	if !op.Type.Valid() {
		return nil, fmt.Errorf("unknown operation type %q", op.Type)
	}

	query :=
		`INSERT INTO string_operations
		   (user_id, operation_type, parameters, result, execution_time_ms, operation_time)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		op.UserID, string(op.Type), op.Parameters, op.Result, op.ExecutionTimeMs, dbx.ToMillis(op.OperationTime),
	).Scan(&op.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return op, nil
}

func (r *SQLiteRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]models.Operation, error) {
	query :=
		`SELECT id, user_id, operation_type, COALESCE(parameters, ''), COALESCE(result, ''),
		        execution_time_ms, operation_time
		 FROM string_operations
		 WHERE user_id = ?
		 ORDER BY operation_time DESC, id DESC
		 LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Operation, 0)
	for rows.Next() {
		var op models.Operation
		var opType string
		var ts int64
		if err := rows.Scan(&op.ID, &op.UserID, &opType, &op.Parameters, &op.Result, &op.ExecutionTimeMs, &ts); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		op.Type = models.OperationType(opType)
		op.OperationTime = dbx.FromMillis(ts)
		result = append(result, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM string_operations WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}
