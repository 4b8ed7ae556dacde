package models

// Role is a named bundle of permissions, e.g. "admin" or "user".
type Role struct {
	ID          string
	Name        string
	Permissions []Permission
}

// Permission is one (action, entity, access) grant from the catalog.
// The same triple appears at most once.
type Permission struct {
	ID     string
	Action string
	Entity string
	Access string
}
