package models

import "time"

// Session binds an opaque, unguessable id to a user until ExpiresAt.
// A session whose ExpiresAt has passed is treated as absent even while its
// row still exists.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Active reports whether the session is usable at now.
func (s *Session) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
