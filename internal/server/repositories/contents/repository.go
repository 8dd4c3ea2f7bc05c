package contents

import (
	"context"
	"time"
)

// Repository is the per-user line store backed by the user_strings table.
type Repository interface {
	// InsertMany appends lines for the user in the given order.
	InsertMany(ctx context.Context, userID int64, lines []string, createdAt time.Time) error
	// GetAll returns the user's lines, newest insertion first.
	GetAll(ctx context.Context, userID int64) ([]string, error)
	// DeleteAll removes every line of the user and reports how many were removed.
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}
