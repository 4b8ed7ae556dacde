// Package notes provides PostgreSQL-backed storage for user notes.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/dbx"
	"github.com/notekeeper/notekeeper/internal/server/models"
)

// PostgresRepository implements note storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts note and fills in its generated ID and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	query := `
		INSERT INTO notes (owner_id, title, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, note.OwnerID, note.Title, note.Content).
		Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return note, nil
}

func (r *PostgresRepository) Find(ctx context.Context, id string) (*models.Note, error) {
	query := `
		SELECT id, owner_id, title, content, created_at, updated_at
		FROM notes
		WHERE id = $1
	`
	n := &models.Note{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// ListByOwner returns every note of ownerID.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Note, error) {
	query := ` SELECT id, owner_id, title, content, created_at, updated_at FROM notes
		WHERE owner_id = $1
		ORDER BY updated_at DESC
		`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	var result []*models.Note
	for rows.Next() {
		var item models.Note
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Title, &item.Content, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, note *models.Note) (*models.Note, error) {
	query := `
		UPDATE notes
		SET title = $2, content = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, owner_id, title, content, created_at, updated_at
	`
	n := &models.Note{}
	err := r.db.QueryRowContext(ctx, query, note.ID, note.Title, note.Content).
		Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
