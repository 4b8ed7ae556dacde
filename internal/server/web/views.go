package web

import (
	"time"

	"github.com/notekeeper/notekeeper/internal/server/models"
)

type userView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name"`
	Roles     []string  `json:"roles,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionView struct {
	Current   bool      `json:"current"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type noteView struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// newUserView omits the email unless private is set.
func newUserView(u *models.User, private bool) userView {
	v := userView{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
	if private {
		v.Email = u.Email
	}
	for _, r := range u.Roles {
		v.Roles = append(v.Roles, r.Name)
	}
	return v
}

func newNoteView(n *models.Note, withContent bool) noteView {
	v := noteView{
		ID:        n.ID,
		OwnerID:   n.OwnerID,
		Title:     n.Title,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if withContent {
		v.Content = n.Content
	}
	return v
}
