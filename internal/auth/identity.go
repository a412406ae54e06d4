package auth

import "context"

// Identity is the authenticated principal for a single request.
//
// It is derived fresh from a validated token by the authentication
// middleware and lives only in that request's context. There is no
// process-wide "current user".
type Identity struct {
	// Subject is the user identifier from the token (email).
	Subject string

	// Roles are the roles carried by the token. Checks treat this as a
	// set; ordering is an artefact of issuance.
	Roles []Role
}

// HasRole returns true if the identity holds the given role.
func (id *Identity) HasRole(role Role) bool {
	if id == nil {
		return false
	}
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole returns true if the identity holds at least one of the roles.
func (id *Identity) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if id.HasRole(r) {
			return true
		}
	}
	return false
}

// IdentityFromClaims builds an Identity from validated token claims.
func IdentityFromClaims(claims *Claims) *Identity {
	return &Identity{
		Subject: claims.Subject,
		Roles:   claims.RoleList(),
	}
}

// identityContextKey is a private context key type to avoid collisions.
type identityContextKey struct{}

// WithIdentity attaches an authenticated identity to ctx.
// The binding is request-scoped: it ends with the request's context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFrom extracts the authenticated identity from ctx.
// The second return is false when the request carried no valid token
// (public routes, or middleware not run).
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	return id, ok && id != nil
}
