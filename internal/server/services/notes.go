package services

import (
	"context"
	"database/sql"

	"github.com/notekeeper/notekeeper/internal/server/auth"
	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repomanager"
)

var createOwnNote = auth.MustParsePermission("create:note:own")

type NoteInput struct {
	Title   string
	Content string
}

// NotesService manages user notes with own/any permission checks.
type NotesService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	authz       *Authorizer
}

func NewNotesService(db *sql.DB, m repomanager.RepositoryManager, authz *Authorizer) *NotesService {
	return &NotesService{db: db, repomanager: m, authz: authz}
}

// Create stores a note owned by callerID.
func (s *NotesService) Create(ctx context.Context, callerID string, in NoteInput) (*models.Note, error) {
	if err := s.authz.RequirePermission(ctx, callerID, createOwnNote); err != nil {
		return nil, err
	}
	return s.repomanager.Notes(s.db).Create(ctx, &models.Note{
		OwnerID: callerID,
		Title:   in.Title,
		Content: in.Content,
	})
}

// Get returns a note by id. Notes are readable by anyone.
func (s *NotesService) Get(ctx context.Context, noteID string) (*models.Note, error) {
	return s.repomanager.Notes(s.db).Find(ctx, noteID)
}

// ListByOwner returns the owner identified by username and their notes.
func (s *NotesService) ListByOwner(ctx context.Context, username string) (*models.User, []*models.Note, error) {
	owner, err := s.repomanager.Users(s.db).FindByUsername(ctx, models.NormalizeUsername(username))
	if err != nil {
		return nil, nil, err
	}
	notes, err := s.repomanager.Notes(s.db).ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, nil, err
	}
	return owner, notes, nil
}

// Update rewrites a note's title and content. Missing notes and permissions
// are checked the same way as in Delete, with the update action.
func (s *NotesService) Update(ctx context.Context, callerID, noteID string, in NoteInput) (*models.Note, error) {
	repo := s.repomanager.Notes(s.db)

	note, err := repo.Find(ctx, noteID)
	if err != nil {
		return nil, err
	}

	access := auth.ResolveOwnership(callerID, note.OwnerID)
	q := auth.OwnershipQuery(auth.ActionUpdate, auth.EntityNote, access)
	if err := s.authz.RequirePermission(ctx, callerID, q); err != nil {
		return nil, err
	}

	return repo.Update(ctx, &models.Note{ID: noteID, Title: in.Title, Content: in.Content})
}

// Delete removes a note. The note must exist (common.ErrNotFound), and the
// caller needs delete:note:own on their own notes or delete:note:any on
// anyone else's.
func (s *NotesService) Delete(ctx context.Context, callerID, noteID string) error {
	repo := s.repomanager.Notes(s.db)

	note, err := repo.Find(ctx, noteID)
	if err != nil {
		return err
	}

	access := auth.ResolveOwnership(callerID, note.OwnerID)
	q := auth.OwnershipQuery(auth.ActionDelete, auth.EntityNote, access)
	if err := s.authz.RequirePermission(ctx, callerID, q); err != nil {
		return err
	}

	return repo.Delete(ctx, noteID)
}
