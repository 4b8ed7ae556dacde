package dbx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	c, ok := UniqueViolation(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "users_email_key", c)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok, "foreign key violation is not a unique violation")

	_, ok = UniqueViolation(errors.New("plain"))
	assert.False(t, ok)
}
