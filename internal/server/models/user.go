// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"
)

// User is an account. Username and Email are stored case-folded to
// lowercase and are unique. A user may exist without a password (not yet
// claimed); such a user cannot log in.
type User struct {
	ID        string
	Username  string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Roles is populated only by queries that load the role graph.
	Roles []Role
}

// NormalizeUsername case-folds a username for storage and lookup.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail case-folds an email address for storage and lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
