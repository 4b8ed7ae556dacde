package models

import "time"

// Note is a user-owned document. Ownership drives the own/any permission scope.
type Note struct {
	ID        string
	OwnerID   string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
