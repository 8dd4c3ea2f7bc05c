package dbx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
)

// Pinger is satisfied by *sql.DB. PingContext makes the pool hand out (and if
// needed open) a working connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RetryOnceResult runs fn and, if it failed because the storage connection was
// lost, re-establishes the connection and runs fn one more time. Any other
// error is returned as is. A failed reconnect returns the original error.
func RetryOnceResult[T any](ctx context.Context, db Pinger, fn func(ctx context.Context) (T, error)) (T, error) {
	res, err := fn(ctx)
	if err == nil || !IsConnectionError(err) {
		return res, err
	}

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return res, err
	}

	return fn(ctx)
}

// RetryOnce is RetryOnceResult for functions without a result.
func RetryOnce(ctx context.Context, db Pinger, fn func(ctx context.Context) error) error {
	_, err := RetryOnceResult(ctx, db, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// IsConnectionError reports whether err means the connection to the store is
// unusable, as opposed to a failed statement.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	return isSQLiteConnectionError(err)
}
