package board

import (
	"testing"
)

func TestResolveRole(t *testing.T) {
	b := Board{
		Id:        "b1",
		OwnerId:   "owner",
		MemberIds: []string{"owner", "editor", "viewer", "legacy"},
		MemberRoles: map[string]Role{
			"owner":    RoleViewer, // stale entry must never demote the owner
			"editor":   RoleEditor,
			"viewer":   RoleViewer,
			"outsider": RoleEditor, // role without membership still counts
		},
	}

	tests := []struct {
		name   string
		userId string
		expect Role
	}{
		{"owner wins over role map", "owner", RoleOwner},
		{"explicit editor", "editor", RoleEditor},
		{"explicit viewer", "viewer", RoleViewer},
		{"legacy member without role", "legacy", RoleViewer},
		{"role map entry without membership", "outsider", RoleEditor},
		{"stranger", "stranger", RoleNone},
		{"empty user id", "", RoleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveRole(b, tt.userId); got != tt.expect {
				t.Fatalf("ResolveRole(%q) = %v, want %v", tt.userId, got, tt.expect)
			}
		})
	}
}

func TestResolveRole_IgnoresUnknownRoleValues(t *testing.T) {
	b := Board{OwnerId: "owner", MemberIds: []string{"m"}, MemberRoles: map[string]Role{"m": "admin"}}

	if got := ResolveRole(b, "m"); got != RoleViewer {
		t.Fatalf("ResolveRole = %v, want viewer", got)
	}
}

func TestCanMutate(t *testing.T) {
	tests := []struct {
		role   Role
		expect bool
	}{
		{RoleOwner, true},
		{RoleEditor, true},
		{RoleViewer, false},
		{RoleNone, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := CanMutate(tt.role); got != tt.expect {
				t.Fatalf("CanMutate(%v) = %v, want %v", tt.role, got, tt.expect)
			}
		})
	}
}
