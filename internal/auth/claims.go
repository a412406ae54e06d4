package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultTokenTTLMinutes is used when no TTL is configured.
const defaultTokenTTLMinutes = 15

// Claims is the signed payload of a Taskforge token.
//
// Roles is a single space-separated string claim; order is preserved from
// issuance but consumers must treat the parsed list as a set.
type Claims struct {
	jwt.RegisteredClaims
	Roles string `json:"roles"`
}

// RoleList parses the roles claim into a role slice.
func (c *Claims) RoleList() []Role {
	fields := strings.Fields(c.Roles)
	roles := make([]Role, 0, len(fields))
	for _, f := range fields {
		roles = append(roles, Role(f))
	}
	return roles
}

// joinRoles flattens roles into the space-separated claim form.
// Order is preserved and duplicates are kept as given.
func joinRoles(roles []Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return strings.Join(names, " ")
}

// IssueToken creates a signed JWT for a subject with the given roles.
//
// The token carries iss, iat, sub, roles, and exp = iat + ttl. The expiry
// claim is validated on every parse, so a captured token cannot be replayed
// past the cookie lifetime.
//
// Parameters:
//   - keys: Process key pair (private key signs)
//   - issuer: iss claim value
//   - subject: User identifier (email)
//   - roles: Role list, order preserved, no deduplication
//   - ttlMinutes: Token lifetime; <= 0 defaults to 15
//
// Returns:
//   - string: Compact signed token
//   - error: Wrapping ErrSigning if key material is missing or signing fails
func IssueToken(keys *KeyPair, issuer, subject string, roles []Role, ttlMinutes int) (string, error) {
	if keys == nil || keys.Private == nil {
		return "", fmt.Errorf("%w: no private key", ErrSigning)
	}
	if ttlMinutes <= 0 {
		ttlMinutes = defaultTokenTTLMinutes
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMinutes) * time.Minute)),
		},
		Roles: joinRoles(roles),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(keys.Private)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return signed, nil
}

// ParseToken validates and parses a signed token, returning its claims.
//
// It checks the RS256 signature against the process public key, the expiry,
// and that the subject and roles claims are present. Validation is pure:
// the same token and key always yield the same result.
func ParseToken(keys *KeyPair, tokenString string) (*Claims, error) {
	if keys == nil || keys.Public == nil {
		return nil, fmt.Errorf("%w: no public key", ErrTokenInvalid)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return keys.Public, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	if strings.TrimSpace(claims.Roles) == "" {
		return nil, fmt.Errorf("%w: missing roles", ErrTokenInvalid)
	}

	return claims, nil
}
