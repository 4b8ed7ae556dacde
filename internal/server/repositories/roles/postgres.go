package roles

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/notekeeper/notekeeper/internal/dbx"
	"github.com/notekeeper/notekeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.Role, error) {
	query := `
		SELECT r.id, r.name, p.id, p.action, p.entity, p.access
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY r.name, p.entity, p.action, p.access
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Role{}
	index := map[string]int{}
	for rows.Next() {
		var (
			roleID, roleName               string
			permID, action, entity, access sql.NullString
		)
		if err := rows.Scan(&roleID, &roleName, &permID, &action, &entity, &access); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		i, ok := index[roleID]
		if !ok {
			i = len(result)
			index[roleID] = i
			result = append(result, models.Role{ID: roleID, Name: roleName})
		}

		// a role with no permissions comes back as a single all-NULL row
		if !permID.Valid {
			continue
		}
		result[i].Permissions = append(result[i].Permissions, models.Permission{
			ID:     permID.String,
			Action: action.String,
			Entity: entity.String,
			Access: access.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) UserHasRole(ctx context.Context, userID, roleName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1 AND r.name = $2
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, roleName).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
