package auth

import (
	"context"
	"testing"
)

func TestIdentity_HasRole(t *testing.T) {
	id := &Identity{Subject: "a@example.com", Roles: []Role{RoleUser, RoleProjectOwner}}

	if !id.HasRole(RoleUser) {
		t.Error("HasRole(user) = false, want true")
	}
	if id.HasRole(RoleAdmin) {
		t.Error("HasRole(admin) = true, want false")
	}

	var nilID *Identity
	if nilID.HasRole(RoleUser) {
		t.Error("nil identity should hold no roles")
	}
}

func TestIdentity_HasAnyRole(t *testing.T) {
	id := &Identity{Subject: "a@example.com", Roles: []Role{RoleUser}}

	if !id.HasAnyRole(RoleAdmin, RoleUser) {
		t.Error("HasAnyRole should match on the second candidate")
	}
	if id.HasAnyRole(RoleAdmin, RoleProjectOwner) {
		t.Error("HasAnyRole matched a role the identity lacks")
	}
	if id.HasAnyRole() {
		t.Error("HasAnyRole() with no candidates must be false")
	}
}

func TestIdentityFromClaims(t *testing.T) {
	claims := &Claims{Roles: "admin user"}
	claims.Subject = "a@example.com"

	id := IdentityFromClaims(claims)
	if id.Subject != "a@example.com" {
		t.Errorf("Subject = %q, want a@example.com", id.Subject)
	}
	if len(id.Roles) != 2 || id.Roles[0] != RoleAdmin || id.Roles[1] != RoleUser {
		t.Errorf("Roles = %v, want [admin user]", id.Roles)
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Error("IdentityFrom on empty context should report no identity")
	}

	id := &Identity{Subject: "a@example.com", Roles: []Role{RoleUser}}
	ctx := WithIdentity(context.Background(), id)

	got, ok := IdentityFrom(ctx)
	if !ok {
		t.Fatal("IdentityFrom after WithIdentity should find the identity")
	}
	if got.Subject != id.Subject {
		t.Errorf("Subject = %q, want %q", got.Subject, id.Subject)
	}

	// A nil binding must not count as authenticated.
	ctx = WithIdentity(context.Background(), nil)
	if _, ok := IdentityFrom(ctx); ok {
		t.Error("nil identity binding should report no identity")
	}
}
