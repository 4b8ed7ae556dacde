package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/dbx"
	"github.com/notekeeper/notekeeper/internal/server/models"
)

// PostgreSQL default names of the unique constraints on users.
const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, name)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.Name).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if constraint, ok := dbx.UniqueViolation(err); ok {
			switch constraint {
			case usernameConstraint:
				return nil, ErrUsernameTaken
			case emailConstraint:
				return nil, ErrEmailTaken
			}
			return nil, fmt.Errorf("%w: %s", common.ErrAlreadyExists, constraint)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, username, email, name, created_at, updated_at FROM users
		 WHERE id = $1`

	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, email, name, created_at, updated_at FROM users
		 WHERE username = $1`

	return r.findOne(ctx, query, username)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, username, email, name, created_at, updated_at FROM users
		 WHERE email = $1`

	return r.findOne(ctx, query, email)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) ([]*models.User, error) {
	query :=
		`SELECT id, username, email, name, created_at, updated_at FROM users
		 WHERE username = $1 OR email = $2`

	return r.findMany(ctx, query, username, email)
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*models.User, error) {
	query :=
		`SELECT id, username, email, name, created_at, updated_at FROM users
		 ORDER BY username
		 LIMIT $1`

	return r.findMany(ctx, query, limit)
}

func (r *PostgresRepository) findMany(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) SetPassword(ctx context.Context, userID, hash string) error {
	query :=
		`INSERT INTO passwords (user_id, hash)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET hash = EXCLUDED.hash`

	if _, err := r.db.ExecContext(ctx, query, userID, hash); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	query := `SELECT hash FROM passwords WHERE user_id = $1`

	var hash string
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return hash, nil
}

func (r *PostgresRepository) AssignRole(ctx context.Context, userID, roleName string) error {
	query :=
		`INSERT INTO user_roles (user_id, role_id)
		 SELECT $1, id FROM roles WHERE name = $2
		 ON CONFLICT DO NOTHING
		 RETURNING role_id`

	var roleID string
	err := r.db.QueryRowContext(ctx, query, userID, roleName).Scan(&roleID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		// either the role is unknown or the user already holds it
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)`, roleName).Scan(&exists); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if !exists {
			return fmt.Errorf("role %q: %w", roleName, common.ErrNotFound)
		}
		return nil
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
