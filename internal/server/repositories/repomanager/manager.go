package repomanager

import (
	"context"
	"database/sql"

	"github.com/notekeeper/notekeeper/internal/dbx"
	"github.com/notekeeper/notekeeper/internal/server/repositories/notes"
	"github.com/notekeeper/notekeeper/internal/server/repositories/roles"
	"github.com/notekeeper/notekeeper/internal/server/repositories/sessions"
	"github.com/notekeeper/notekeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so that a service
// can run several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Roles(db dbx.DBTX) roles.Repository
	Notes(db dbx.DBTX) notes.Repository
}
