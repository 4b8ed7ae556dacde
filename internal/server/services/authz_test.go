package services

import (
	"context"
	"errors"
	"testing"

	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/auth"
	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthorizer(t *testing.T) (*Authorizer, *repotest.Manager) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.RolesRepo.ByUser["alice"] = []models.Role{repotest.UserRole}
	rm.RolesRepo.ByUser["root"] = []models.Role{repotest.UserRole, repotest.AdminRole}
	return NewAuthorizer(db, rm), rm
}

func TestAuthorizer_RequireRole(t *testing.T) {
	a, _ := newAuthorizer(t)
	ctx := context.Background()

	assert.NoError(t, a.RequireRole(ctx, "root", common.RoleAdmin))

	err := a.RequireRole(ctx, "alice", common.RoleAdmin)
	require.ErrorIs(t, err, common.ErrForbidden)

	var ferr *common.ForbiddenError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, common.RoleAdmin, ferr.RequiredRole)

	assert.ErrorIs(t, a.RequireRole(ctx, "nobody", common.RoleUser), common.ErrForbidden)
}

func TestAuthorizer_RequirePermission(t *testing.T) {
	a, _ := newAuthorizer(t)
	ctx := context.Background()

	readAny := auth.MustParsePermission("read:user:any")
	assert.NoError(t, a.RequirePermission(ctx, "root", readAny))

	err := a.RequirePermission(ctx, "alice", readAny)
	var ferr *common.ForbiddenError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "read:user:any", ferr.RequiredPermission)
	assert.Equal(t, "forbidden: required permissions: read:user:any", err.Error())
}

func TestAuthorizer_StoreErrorIsNotForbidden(t *testing.T) {
	a, rm := newAuthorizer(t)
	rm.RolesRepo.Err = errBoom{}

	err := a.RequirePermission(context.Background(), "root", auth.MustParsePermission("read:user"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrForbidden)

	err = a.RequireRole(context.Background(), "root", common.RoleAdmin)
	assert.NotErrorIs(t, err, common.ErrForbidden)
}
