// Package repository persists user accounts for the credential store. The
// email uniqueness guarantee lives here, enforced atomically by each
// backend, never by a check in a caller.
package repository

import (
	"context"
	"strings"

	"github.com/dmarchuk/gatekeep/internal/models"
)

// Patch is a partial update of one account. Empty fields are left
// unchanged; the whole patch applies atomically.
type Patch struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

// Repository is the storage contract for user accounts.
//
// Implementations return common.ErrConflict when a write would duplicate an
// email and common.ErrNotFound when the addressed account does not exist.
type Repository interface {
	Create(ctx context.Context, user *models.UserWithHash) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.UserWithHash, error)
	Update(ctx context.Context, patch Patch) (*models.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]models.User, int, error)
	Close() error
}

// Open picks a backend from the DSN: postgres URLs get the PostgreSQL
// repository, anything else is treated as a SQLite file path.
func Open(ctx context.Context, dsn string) (Repository, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return NewPostgres(ctx, dsn)
	}
	return NewSQLite(ctx, dsn)
}
