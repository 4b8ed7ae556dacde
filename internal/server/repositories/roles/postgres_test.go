package roles

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var roleColumns = []string{"id", "name", "id", "action", "entity", "access"}

const qList = `(?s)^SELECT\s+r\.id,\s*r\.name,.*FROM\s+user_roles\s+ur.*LEFT\s+JOIN\s+permissions\s+p.*WHERE\s+ur\.user_id\s*=\s*\$1`

func TestListForUser_GroupsPermissionsByRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(roleColumns).
		AddRow("r1", "admin", "p1", "delete", "note", "any").
		AddRow("r1", "admin", "p2", "read", "user", "any").
		AddRow("r2", "user", "p3", "create", "note", "own")
	mock.ExpectQuery(qList).WithArgs("u1").WillReturnRows(rows)

	got, err := repo.ListForUser(context.Background(), "u1")
	require.NoError(t, err)

	want := []models.Role{
		{ID: "r1", Name: "admin", Permissions: []models.Permission{
			{ID: "p1", Action: "delete", Entity: "note", Access: "any"},
			{ID: "p2", Action: "read", Entity: "user", Access: "any"},
		}},
		{ID: "r2", Name: "user", Permissions: []models.Permission{
			{ID: "p3", Action: "create", Entity: "note", Access: "own"},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("roles mismatch (-want +got):\n%s", diff)
	}
}

func TestListForUser_RoleWithoutPermissions(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(roleColumns).AddRow("r3", "empty", nil, nil, nil, nil)
	mock.ExpectQuery(qList).WithArgs("u1").WillReturnRows(rows)

	got, err := repo.ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "empty", got[0].Name)
	assert.Empty(t, got[0].Permissions)
}

func TestListForUser_NoRoles(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qList).WithArgs("u1").WillReturnRows(sqlmock.NewRows(roleColumns))

	got, err := repo.ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListForUser_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qList).WillReturnError(errors.New("db down"))

	_, err := repo.ListForUser(context.Background(), "u1")
	assert.ErrorContains(t, err, "db error: db down")
}

func TestUserHasRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+EXISTS.*WHERE\s+ur\.user_id\s*=\s*\$1\s+AND\s+r\.name\s*=\s*\$2`
	mock.ExpectQuery(q).WithArgs("u1", "admin").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(q).WithArgs("u1", "root").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.UserHasRole(context.Background(), "u1", "admin")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UserHasRole(context.Background(), "u1", "root")
	require.NoError(t, err)
	assert.False(t, ok)
}
