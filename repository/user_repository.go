// Package repository is the persistence layer. Services depend on the
// interfaces declared here; the sqlite_*.go files implement them on
// database/sql.
package repository

import (
	"context"

	"github.com/akinalp/leasehub/models"
)

// UserRepository is the user directory.
type UserRepository interface {
	// Create assigns ID and CreatedAt. A taken email is ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByIDs returns the users that exist, keyed by id.
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}
