package services

import (
	"context"
	"errors"
	"testing"

	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotesService(t *testing.T) (*NotesService, *repotest.Manager) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	return NewNotesService(db, rm, NewAuthorizer(db, rm)), rm
}

func TestNotes_CreateAndList(t *testing.T) {
	svc, rm := newNotesService(t)
	ctx := context.Background()
	kody := rm.UsersRepo.Add("kody", "kody@example.com", "")
	rm.RolesRepo.ByUser[kody.ID] = []models.Role{repotest.UserRole}

	n, err := svc.Create(ctx, kody.ID, NoteInput{Title: "Koalas", Content: "are not bears"})
	require.NoError(t, err)
	assert.Equal(t, kody.ID, n.OwnerID)

	owner, notes, err := svc.ListByOwner(ctx, "KODY")
	require.NoError(t, err)
	assert.Equal(t, kody.ID, owner.ID)
	require.Len(t, notes, 1)

	got, err := svc.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Koalas", got.Title)
}

func TestNotes_CreateWithoutRoleIsForbidden(t *testing.T) {
	svc, _ := newNotesService(t)

	_, err := svc.Create(context.Background(), "u-without-roles", NoteInput{Title: "t"})
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestNotes_ListByUnknownOwner(t *testing.T) {
	svc, _ := newNotesService(t)

	_, _, err := svc.ListByOwner(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNotes_Delete(t *testing.T) {
	svc, rm := newNotesService(t)
	ctx := context.Background()

	rm.RolesRepo.ByUser["owner"] = []models.Role{repotest.UserRole}
	rm.RolesRepo.ByUser["stranger"] = []models.Role{repotest.UserRole}
	rm.RolesRepo.ByUser["admin"] = []models.Role{repotest.AdminRole}
	rm.RolesRepo.ByUser["admin-and-user"] = []models.Role{repotest.UserRole, repotest.AdminRole}

	tests := []struct {
		name    string
		caller  string
		owner   string
		wantErr error
		perm    string
	}{
		{name: "owner with own grant", caller: "owner", owner: "owner"},
		{name: "stranger lacks any grant", caller: "stranger", owner: "owner", wantErr: common.ErrForbidden, perm: "delete:note:any"},
		{name: "admin deletes others", caller: "admin", owner: "owner"},
		{name: "admin without own grant cannot delete own", caller: "admin", owner: "admin", wantErr: common.ErrForbidden, perm: "delete:note:own"},
		{name: "admin with user role deletes own", caller: "admin-and-user", owner: "admin-and-user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := rm.NotesRepo.Create(ctx, &models.Note{OwnerID: tt.owner, Title: "t"})
			require.NoError(t, err)

			err = svc.Delete(ctx, tt.caller, n.ID)
			if tt.wantErr == nil {
				require.NoError(t, err)
				_, err = rm.NotesRepo.Find(ctx, n.ID)
				assert.ErrorIs(t, err, common.ErrNotFound)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			var ferr *common.ForbiddenError
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, tt.perm, ferr.RequiredPermission)

			_, err = rm.NotesRepo.Find(ctx, n.ID)
			assert.NoError(t, err, "note must survive a forbidden delete")
		})
	}
}

func TestNotes_DeleteMissingIsNotFoundBeforeAuthorization(t *testing.T) {
	svc, _ := newNotesService(t)

	err := svc.Delete(context.Background(), "u-without-roles", "n404")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NotErrorIs(t, err, common.ErrForbidden)
}

func TestNotes_Update(t *testing.T) {
	svc, rm := newNotesService(t)
	ctx := context.Background()

	rm.RolesRepo.ByUser["owner"] = []models.Role{repotest.UserRole}
	rm.RolesRepo.ByUser["stranger"] = []models.Role{repotest.UserRole}
	rm.RolesRepo.ByUser["admin"] = []models.Role{repotest.AdminRole}

	tests := []struct {
		name    string
		caller  string
		wantErr error
		perm    string
	}{
		{name: "owner edits own", caller: "owner"},
		{name: "stranger lacks any grant", caller: "stranger", wantErr: common.ErrForbidden, perm: "update:note:any"},
		{name: "admin edits others", caller: "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := rm.NotesRepo.Create(ctx, &models.Note{OwnerID: "owner", Title: "Koalas", Content: "are bears"})
			require.NoError(t, err)

			got, err := svc.Update(ctx, tt.caller, n.ID, NoteInput{Title: "Koalas", Content: "are not bears"})
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "are not bears", got.Content)
				assert.Equal(t, "owner", got.OwnerID)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			var ferr *common.ForbiddenError
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, tt.perm, ferr.RequiredPermission)

			stored, err := rm.NotesRepo.Find(ctx, n.ID)
			require.NoError(t, err)
			assert.Equal(t, "are bears", stored.Content, "note must survive a forbidden update")
		})
	}
}

func TestNotes_UpdateMissingIsNotFoundBeforeAuthorization(t *testing.T) {
	svc, _ := newNotesService(t)

	_, err := svc.Update(context.Background(), "u-without-roles", "n404", NoteInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NotErrorIs(t, err, common.ErrForbidden)
}
