// Package users declares the credential store contract for accounts and
// their password hashes, and its PostgreSQL implementation.
package users

import (
	"context"
	"fmt"

	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/models"
)

// Conflict errors returned by Create. Both match common.ErrAlreadyExists.
var (
	ErrUsernameTaken = fmt.Errorf("username: %w", common.ErrAlreadyExists)
	ErrEmailTaken    = fmt.Errorf("email: %w", common.ErrAlreadyExists)
)

// Repository is the credential store. Every method is atomic at row granularity.
type Repository interface {
	// Create inserts a user and fills in ID and timestamps. Username and
	// email must already be normalized.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByID, FindByUsername and FindByEmail return common.ErrNotFound
	// when absent.
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByUsernameOrEmail returns every user holding either value, so
	// signup can report both conflicts at once.
	FindByUsernameOrEmail(ctx context.Context, username, email string) ([]*models.User, error)

	// List returns users ordered by username.
	List(ctx context.Context, limit int) ([]*models.User, error)

	// SetPassword creates or replaces the user's password hash.
	SetPassword(ctx context.Context, userID, hash string) error

	// GetPasswordHash returns common.ErrNotFound for a user without a password.
	GetPasswordHash(ctx context.Context, userID string) (string, error)

	// AssignRole grants the named role. Granting a held role is a no-op;
	// an unknown role name yields common.ErrNotFound.
	AssignRole(ctx context.Context, userID, roleName string) error

	// Delete removes the user; password, sessions, roles and notes cascade.
	Delete(ctx context.Context, id string) error
}
