package users

import (
	"context"

	"github.com/deferscky/stringeditor/internal/server/models"
)

// Repository is the credential store.
type Repository interface {
	// Create inserts the user and fills in its ID. A taken login yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// UpdatePasswordHash replaces the hash only while it still equals oldHash;
	// otherwise it returns common.ErrorNotFound.
	UpdatePasswordHash(ctx context.Context, id int64, oldHash, newHash string) error
	// Delete removes the user only while its hash equals passwordHash;
	// otherwise it returns common.ErrorNotFound.
	Delete(ctx context.Context, id int64, passwordHash string) error
	// List returns all users, newest first.
	List(ctx context.Context) ([]models.User, error)
}
