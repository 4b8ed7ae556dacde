package sessions

import (
	"context"
	"time"

	"github.com/notekeeper/notekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	// Find returns common.ErrNotFound for an unknown id. Expired rows are
	// still returned; callers decide liveness.
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteForUserExcept removes every session of userID other than keepID
	// and reports how many were removed.
	DeleteForUserExcept(ctx context.Context, userID, keepID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
