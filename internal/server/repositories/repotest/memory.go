// Package repotest provides in-memory repositories for service and
// transport tests. They honor the same error contracts as the PostgreSQL
// implementations.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/dbx"
	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/notekeeper/notekeeper/internal/server/repositories/notes"
	"github.com/notekeeper/notekeeper/internal/server/repositories/roles"
	"github.com/notekeeper/notekeeper/internal/server/repositories/sessions"
	"github.com/notekeeper/notekeeper/internal/server/repositories/users"
)

// Users is an in-memory users.Repository.
type Users struct {
	mu        sync.Mutex
	byID      map[string]*models.User
	passwords map[string]string
	RoleNames map[string][]string
	seq       int

	CreateErr error
	FindErr   error
	AssignErr error
	// AssignErrRole limits AssignErr to one role name when set.
	AssignErrRole string
}

func NewUsers() *Users {
	return &Users{
		byID:      map[string]*models.User{},
		passwords: map[string]string{},
		RoleNames: map[string][]string{},
	}
}

func (f *Users) Add(username, email, passwordHash string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	u := &models.User{ID: fmt.Sprintf("u%d", f.seq), Username: username, Email: email}
	f.byID[u.ID] = u
	if passwordHash != "" {
		f.passwords[u.ID] = passwordHash
	}
	return u
}

func (f *Users) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == user.Username {
			return nil, users.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return nil, users.ErrEmailTaken
		}
	}
	f.seq++
	user.ID = fmt.Sprintf("u%d", f.seq)
	f.byID[user.ID] = user
	return user, nil
}

func (f *Users) FindByID(ctx context.Context, id string) (*models.User, error) {
	return f.findOne(func(u *models.User) bool { return u.ID == id })
}

func (f *Users) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.findOne(func(u *models.User) bool { return u.Username == username })
}

func (f *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.findOne(func(u *models.User) bool { return u.Email == email })
}

func (f *Users) findOne(match func(*models.User) bool) (*models.User, error) {
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *Users) FindByUsernameOrEmail(ctx context.Context, username, email string) ([]*models.User, error) {
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.byID {
		if u.Username == username || u.Email == email {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *Users) List(ctx context.Context, limit int) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Users) SetPassword(ctx context.Context, userID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[userID] = hash
	return nil
}

func (f *Users) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.passwords[userID]
	if !ok {
		return "", common.ErrNotFound
	}
	return h, nil
}

func (f *Users) AssignRole(ctx context.Context, userID, roleName string) error {
	if f.AssignErr != nil && (f.AssignErrRole == "" || f.AssignErrRole == roleName) {
		return f.AssignErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RoleNames[userID] = append(f.RoleNames[userID], roleName)
	return nil
}

func (f *Users) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	delete(f.passwords, id)
	delete(f.RoleNames, id)
	return nil
}

// Sessions is an in-memory sessions.Repository.
type Sessions struct {
	mu   sync.Mutex
	rows map[string]*models.Session

	FindErr error
}

func NewSessions() *Sessions {
	return &Sessions{rows: map[string]*models.Session{}}
}

func (f *Sessions) Create(ctx context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *Sessions) Find(ctx context.Context, id string) (*models.Session, error) {
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *Sessions) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *Sessions) DeleteForUserExcept(ctx context.Context, userID, keepID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.rows {
		if s.UserID == userID && id != keepID {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *Sessions) ListByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Session
	for _, s := range f.rows {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *Sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.rows {
		if !s.ExpiresAt.After(now) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

// Roles serves the roles set in ByUser plus any catalog role granted
// through Users.AssignRole.
type Roles struct {
	ByUser map[string][]models.Role
	Err    error

	users *Users
}

func (f *Roles) ListForUser(ctx context.Context, userID string) ([]models.Role, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := append([]models.Role{}, f.ByUser[userID]...)
	if f.users == nil {
		return out, nil
	}

	f.users.mu.Lock()
	names := append([]string(nil), f.users.RoleNames[userID]...)
	f.users.mu.Unlock()

	for _, name := range names {
		role, ok := catalog[name]
		if !ok || slices.ContainsFunc(out, func(r models.Role) bool { return r.Name == name }) {
			continue
		}
		out = append(out, role)
	}
	return out, nil
}

func (f *Roles) UserHasRole(ctx context.Context, userID, roleName string) (bool, error) {
	roles, err := f.ListForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(roles, func(r models.Role) bool { return r.Name == roleName }), nil
}

// Notes is an in-memory notes.Repository. Ids are random UUIDs like the
// database default.
type Notes struct {
	mu   sync.Mutex
	rows map[string]*models.Note
}

func NewNotes() *Notes {
	return &Notes{rows: map[string]*models.Note{}}
}

func (f *Notes) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note.ID = uuid.NewString()
	f.rows[note.ID] = note
	return note, nil
}

func (f *Notes) Find(ctx context.Context, id string) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return n, nil
}

func (f *Notes) ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Note
	for _, n := range f.rows {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *Notes) Update(ctx context.Context, note *models.Note) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[note.ID]
	if !ok {
		return nil, common.ErrNotFound
	}
	n.Title = note.Title
	n.Content = note.Content
	n.UpdatedAt = time.Now()
	cp := *n
	return &cp, nil
}

func (f *Notes) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// Manager is a repomanager.RepositoryManager over the in-memory repositories.
type Manager struct {
	UsersRepo    *Users
	SessionsRepo *Sessions
	RolesRepo    *Roles
	NotesRepo    *Notes
}

func NewManager() *Manager {
	u := NewUsers()
	return &Manager{
		UsersRepo:    u,
		SessionsRepo: NewSessions(),
		RolesRepo:    &Roles{ByUser: map[string][]models.Role{}, users: u},
		NotesRepo:    NewNotes(),
	}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *Manager) Users(db dbx.DBTX) users.Repository           { return m.UsersRepo }
func (m *Manager) Sessions(db dbx.DBTX) sessions.Repository     { return m.SessionsRepo }
func (m *Manager) Roles(db dbx.DBTX) roles.Repository           { return m.RolesRepo }
func (m *Manager) Notes(db dbx.DBTX) notes.Repository           { return m.NotesRepo }

// Permissions builds grants from "action entity access" triples.
func Permissions(specs ...string) []models.Permission {
	out := make([]models.Permission, 0, len(specs))
	for _, s := range specs {
		var p models.Permission
		_, _ = fmt.Sscanf(s, "%s %s %s", &p.Action, &p.Entity, &p.Access)
		out = append(out, p)
	}
	return out
}

// UserRole and AdminRole mirror a subset of the seeded catalog.
var (
	UserRole  = models.Role{Name: common.RoleUser, Permissions: Permissions("create note own", "read note own", "update note own", "delete note own", "read user own")}
	AdminRole = models.Role{Name: common.RoleAdmin, Permissions: Permissions("create note any", "read note any", "update note any", "delete note any", "read user any")}

	catalog = map[string]models.Role{common.RoleUser: UserRole, common.RoleAdmin: AdminRole}
)
