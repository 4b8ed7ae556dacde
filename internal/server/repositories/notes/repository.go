package notes

import (
	"context"

	"github.com/notekeeper/notekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	// Find returns common.ErrNotFound for an unknown id.
	Find(ctx context.Context, id string) (*models.Note, error)
	// ListByOwner returns the owner's notes, most recently updated first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error)
	// Update rewrites title and content and bumps updated_at. Unknown ids
	// return common.ErrNotFound.
	Update(ctx context.Context, note *models.Note) (*models.Note, error)
	// Delete returns common.ErrNotFound when no row was removed.
	Delete(ctx context.Context, id string) error
}
