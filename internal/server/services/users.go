package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repomanager"
	"github.com/notekeeper/notekeeper/internal/timex"
)

const defaultUserListLimit = 100

// UserExport is the downloadable copy of everything stored about a user.
// Password hashes and session ids are never included.
type UserExport struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Roles     []RoleExport    `json:"roles"`
	Sessions  []SessionExport `json:"sessions"`
	Notes     []NoteExport    `json:"notes"`
}

type RoleExport struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type SessionExport struct {
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type NoteExport struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UsersService reads user profiles.
type UsersService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         timex.Clock
}

func NewUsersService(db *sql.DB, m repomanager.RepositoryManager, now timex.Clock) *UsersService {
	if now == nil {
		now = timex.Now
	}
	return &UsersService{db: db, repomanager: m, now: now}
}

// Get returns the user with roles loaded.
func (s *UsersService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Roles, err = s.repomanager.Roles(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByUsername looks a user up by the normalized username. Roles are not
// loaded.
func (s *UsersService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repomanager.Users(s.db).FindByUsername(ctx, models.NormalizeUsername(username))
}

func (s *UsersService) List(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).List(ctx, defaultUserListLimit)
}

// Export collects the user's profile, roles, live sessions and notes.
func (s *UsersService) Export(ctx context.Context, userID string) (*UserExport, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repomanager.Sessions(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	notes, err := s.repomanager.Notes(s.db).ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &UserExport{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		Roles:     make([]RoleExport, 0, len(user.Roles)),
		Sessions:  []SessionExport{},
		Notes:     make([]NoteExport, 0, len(notes)),
	}
	for _, r := range user.Roles {
		perms := make([]string, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			perms = append(perms, p.Action+":"+p.Entity+":"+p.Access)
		}
		out.Roles = append(out.Roles, RoleExport{Name: r.Name, Permissions: perms})
	}
	now := s.now()
	for _, sess := range sessions {
		if sess.Active(now) {
			out.Sessions = append(out.Sessions, SessionExport{CreatedAt: sess.CreatedAt, ExpiresAt: sess.ExpiresAt})
		}
	}
	for _, n := range notes {
		out.Notes = append(out.Notes, NoteExport{
			ID:        n.ID,
			Title:     n.Title,
			Content:   n.Content,
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		})
	}
	return out, nil
}
