// Package roles reads the role and permission catalog granted to users.
package roles

import (
	"context"

	"github.com/notekeeper/notekeeper/internal/server/models"
)

type Repository interface {
	// ListForUser returns the user's roles, each with its full permission
	// set. A user without roles yields an empty slice.
	ListForUser(ctx context.Context, userID string) ([]models.Role, error)
	UserHasRole(ctx context.Context, userID, roleName string) (bool, error)
}
