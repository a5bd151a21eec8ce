package board

import (
	"slices"
	"time"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	RoleNone   Role = "none"
)

type Board struct {
	Id        string
	Name      string
	OwnerId   string
	MemberIds []string
	// MemberRoles holds explicit roles. The owner is never stored here, and
	// members missing from it joined before roles existed.
	MemberRoles map[string]Role
	CreatedAt   time.Time
}

// ResolveRole returns the effective role of userId on b. The owner always
// resolves to RoleOwner, whatever the role map says.
func ResolveRole(b Board, userId string) Role {
	if userId == "" {
		return RoleNone
	}
	if userId == b.OwnerId {
		return RoleOwner
	}
	if role, ok := b.MemberRoles[userId]; ok && role.assignable() {
		return role
	}
	if b.IsMember(userId) {
		return RoleViewer
	}
	return RoleNone
}

// CanMutate reports whether role may write to a board.
func CanMutate(role Role) bool {
	return role == RoleOwner || role == RoleEditor
}

func (b Board) IsMember(userId string) bool {
	return userId == b.OwnerId || slices.Contains(b.MemberIds, userId)
}

// assignable reports whether r can be stored in the role map.
func (r Role) assignable() bool {
	return r == RoleEditor || r == RoleViewer
}

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.assignable()
}
