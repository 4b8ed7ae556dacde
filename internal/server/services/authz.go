package services

import (
	"context"
	"database/sql"

	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/auth"
	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repomanager"
)

// Authorizer answers role and permission questions for a user. Roles are
// loaded fresh on every call, so grants take effect on the next request.
type Authorizer struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewAuthorizer(db *sql.DB, m repomanager.RepositoryManager) *Authorizer {
	return &Authorizer{db: db, repomanager: m}
}

func (a *Authorizer) Roles(ctx context.Context, userID string) ([]models.Role, error) {
	return a.repomanager.Roles(a.db).ListForUser(ctx, userID)
}

// RequireRole fails with *common.ForbiddenError unless userID holds role.
func (a *Authorizer) RequireRole(ctx context.Context, userID, role string) error {
	ok, err := a.repomanager.Roles(a.db).UserHasRole(ctx, userID, role)
	if err != nil {
		return err
	}
	if !ok {
		return &common.ForbiddenError{RequiredRole: role}
	}
	return nil
}

// RequirePermission fails with *common.ForbiddenError unless one of the
// user's roles grants q.
func (a *Authorizer) RequirePermission(ctx context.Context, userID string, q auth.PermissionQuery) error {
	roles, err := a.Roles(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.HasPermission(roles, q) {
		return &common.ForbiddenError{RequiredPermission: q.String()}
	}
	return nil
}
