// Package auth holds the pure credential and authorization primitives:
// password hashing, permission parsing and evaluation, and verify tokens.
package auth

import (
	"fmt"
	"slices"
	"strings"

	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/models"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Entity string

const (
	EntityUser Entity = "user"
	EntityNote Entity = "note"
)

type Access string

const (
	AccessOwn Access = "own"
	AccessAny Access = "any"
)

var (
	actions  = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
	entities = []Entity{EntityUser, EntityNote}
	accesses = []Access{AccessOwn, AccessAny}
)

// PermissionQuery asks whether a caller may perform Action on Entity. A nil
// Access matches a grant of any access level; otherwise the grant's access
// must be one of the listed values.
type PermissionQuery struct {
	Action Action
	Entity Entity
	Access []Access
}

func (q PermissionQuery) String() string {
	s := string(q.Action) + ":" + string(q.Entity)
	if len(q.Access) == 0 {
		return s
	}
	parts := make([]string, len(q.Access))
	for i, a := range q.Access {
		parts[i] = string(a)
	}
	return s + ":" + strings.Join(parts, ",")
}

// ParsePermission parses "action:entity" or "action:entity:access[,access]".
// Unknown values, empty segments and extra segments are rejected with
// common.ErrInvalidPermission.
func ParsePermission(s string) (PermissionQuery, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return PermissionQuery{}, fmt.Errorf("%w: %q: want action:entity[:access]", common.ErrInvalidPermission, s)
	}

	q := PermissionQuery{Action: Action(parts[0]), Entity: Entity(parts[1])}
	if !slices.Contains(actions, q.Action) {
		return PermissionQuery{}, fmt.Errorf("%w: %q: unknown action %q", common.ErrInvalidPermission, s, parts[0])
	}
	if !slices.Contains(entities, q.Entity) {
		return PermissionQuery{}, fmt.Errorf("%w: %q: unknown entity %q", common.ErrInvalidPermission, s, parts[1])
	}

	if len(parts) == 3 {
		for _, raw := range strings.Split(parts[2], ",") {
			a := Access(raw)
			if !slices.Contains(accesses, a) {
				return PermissionQuery{}, fmt.Errorf("%w: %q: unknown access %q", common.ErrInvalidPermission, s, raw)
			}
			q.Access = append(q.Access, a)
		}
	}

	return q, nil
}

// MustParsePermission is ParsePermission for package-level literals.
func MustParsePermission(s string) PermissionQuery {
	q, err := ParsePermission(s)
	if err != nil {
		panic(err)
	}
	return q
}

// HasPermission reports whether any role grants q. Matching is strict: an
// "any" grant does not satisfy a query for "own" only.
func HasPermission(roles []models.Role, q PermissionQuery) bool {
	for _, role := range roles {
		for _, p := range role.Permissions {
			if p.Action != string(q.Action) || p.Entity != string(q.Entity) {
				continue
			}
			if q.Access == nil || slices.Contains(q.Access, Access(p.Access)) {
				return true
			}
		}
	}
	return false
}

func HasRole(roles []models.Role, name string) bool {
	return slices.ContainsFunc(roles, func(r models.Role) bool { return r.Name == name })
}

// ResolveOwnership classifies the caller relative to the resource owner.
func ResolveOwnership(callerID, ownerID string) Access {
	if callerID != "" && callerID == ownerID {
		return AccessOwn
	}
	return AccessAny
}

// OwnershipQuery builds the query for an ownership-aware check from the
// access resolved by ResolveOwnership. Owners need the own grant, everyone
// else the any grant.
func OwnershipQuery(action Action, entity Entity, access Access) PermissionQuery {
	return PermissionQuery{Action: action, Entity: entity, Access: []Access{access}}
}
