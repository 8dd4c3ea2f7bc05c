package operations

import (
	"context"

	"github.com/deferscky/stringeditor/internal/server/models"
)

// Repository is the append-only audit log.
type Repository interface {
	Create(ctx context.Context, op *models.Operation) (*models.Operation, error)
	// ListRecent returns at most limit records of the user, newest first.
	ListRecent(ctx context.Context, userID int64, limit int) ([]models.Operation, error)
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}
