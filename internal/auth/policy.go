package auth

import "strings"

// Rule maps a path prefix to the roles allowed through it.
// Matching is ANY-of: an identity needs at least one listed role.
type Rule struct {
	Prefix string
	Roles  []Role
}

// Policy is the static route authorisation table.
//
// Matching is longest-prefix: the rule with the longest prefix that matches
// the request path wins, which makes evaluation order-independent and
// deterministic. Paths matching no rule are denied. Public prefixes bypass
// authentication entirely and are checked by the gate, not here.
type Policy struct {
	public []string
	rules  []Rule
}

// NewPolicy builds the default Taskforge authorisation table:
//
//   - /api/auth/login, /api/auth/register, /docs — public, no token required
//   - /api/admin/            — admin only
//   - /api/tasks/update-status/ — user or admin
//   - /api/                  — any of admin, user, project-owner
//
// Everything else is denied (default-deny posture).
func NewPolicy() *Policy {
	return &Policy{
		public: []string{
			"/api/auth/login",
			"/api/auth/register",
			"/docs",
		},
		rules: []Rule{
			{Prefix: "/api/admin/", Roles: []Role{RoleAdmin}},
			{Prefix: "/api/tasks/update-status/", Roles: []Role{RoleUser, RoleAdmin}},
			{Prefix: "/api/", Roles: []Role{RoleAdmin, RoleUser, RoleProjectOwner}},
		},
	}
}

// IsPublic returns true if the path requires no token at all.
// A public entry matches the exact path or any subpath beneath it.
func (p *Policy) IsPublic(path string) bool {
	for _, pub := range p.public {
		if path == pub || strings.HasPrefix(path, pub+"/") {
			return true
		}
	}
	return false
}

// Authorize decides whether an identity may access a path.
//
// An absent identity is always denied. Otherwise the longest matching rule
// prefix applies and the identity needs any one of its roles. No matching
// rule means deny.
func (p *Policy) Authorize(path string, id *Identity) bool {
	if id == nil {
		return false
	}

	var best *Rule
	for i := range p.rules {
		r := &p.rules[i]
		if !strings.HasPrefix(path, r.Prefix) {
			continue
		}
		if best == nil || len(r.Prefix) > len(best.Prefix) {
			best = r
		}
	}
	if best == nil {
		return false
	}

	return id.HasAnyRole(best.Roles...)
}
