package auth

import "testing"

func TestPolicy_IsPublic(t *testing.T) {
	p := NewPolicy()

	tests := []struct {
		path string
		want bool
	}{
		{"/api/auth/login", true},
		{"/api/auth/register", true},
		{"/docs", true},
		{"/docs/openapi.json", true},
		{"/api/auth/logout", false},
		{"/api/auth/loginx", false},
		{"/api/tasks/details", false},
		{"/", false},
	}

	for _, tt := range tests {
		if got := p.IsPublic(tt.path); got != tt.want {
			t.Errorf("IsPublic(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPolicy_Authorize(t *testing.T) {
	p := NewPolicy()

	user := &Identity{Subject: "u@example.com", Roles: []Role{RoleUser}}
	owner := &Identity{Subject: "o@example.com", Roles: []Role{RoleProjectOwner}}
	admin := &Identity{Subject: "a@example.com", Roles: []Role{RoleAdmin}}

	tests := []struct {
		name string
		path string
		id   *Identity
		want bool
	}{
		{"nil identity denied", "/api/tasks/details", nil, false},
		{"user on general api", "/api/tasks/details", user, true},
		{"owner on general api", "/api/projects/add", owner, true},
		{"admin on general api", "/api/tasks/details", admin, true},
		{"user on admin route", "/api/admin/users", user, false},
		{"owner on admin route", "/api/admin/audit", owner, false},
		{"admin on admin route", "/api/admin/users", admin, true},
		{"user on update-status", "/api/tasks/update-status/tsk-1234", user, true},
		{"admin on update-status", "/api/tasks/update-status/tsk-1234", admin, true},
		{"owner on update-status", "/api/tasks/update-status/tsk-1234", owner, false},
		{"no rule matches", "/healthz", admin, false},
		{"empty roles denied", "/api/tasks/details", &Identity{Subject: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Authorize(tt.path, tt.id); got != tt.want {
				t.Errorf("Authorize(%q, %v) = %v, want %v", tt.path, tt.id, got, tt.want)
			}
		})
	}
}

// The most specific prefix must win regardless of rule ordering: an
// owner is allowed under /api/ generally but the narrower
// /api/tasks/update-status/ rule excludes them.
func TestPolicy_LongestPrefixWins(t *testing.T) {
	p := &Policy{
		rules: []Rule{
			{Prefix: "/api/", Roles: []Role{RoleProjectOwner}},
			{Prefix: "/api/tasks/update-status/", Roles: []Role{RoleUser}},
		},
	}

	owner := &Identity{Subject: "o@example.com", Roles: []Role{RoleProjectOwner}}

	if !p.Authorize("/api/tasks/details", owner) {
		t.Error("owner should pass the general /api/ rule")
	}
	if p.Authorize("/api/tasks/update-status/tsk-1", owner) {
		t.Error("narrower rule should shadow the general /api/ rule")
	}
}
