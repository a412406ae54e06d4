package auth

import (
	"errors"
	"regexp"
	"time"
)

// emailPattern is a pragmatic email format check: local@domain with a dot
// in the domain part. Full RFC 5322 validation is deliberately out of scope.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// maxEmailLength is the maximum allowed email length.
const maxEmailLength = 254

// IsValidEmail checks if an email address meets format requirements.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleUser is a regular member: works on tasks assigned to them.
	RoleUser Role = "user"

	// RoleProjectOwner manages projects and their tasks.
	RoleProjectOwner Role = "project-owner"

	// RoleAdmin has full control including user management.
	// The first registered account is promoted to admin automatically.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of valid user roles.
var ValidRoles = []Role{RoleUser, RoleProjectOwner, RoleAdmin}

// IsValidRole returns true if the role is a known role name.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// RoleForNumber maps the registration role number to a role.
// 1 selects user, 2 selects project-owner; anything else is invalid.
func RoleForNumber(n int) (Role, bool) {
	switch n {
	case 1:
		return RoleUser, true
	case 2:
		return RoleProjectOwner, true
	default:
		return "", false
	}
}

// User represents an account that can authenticate against the API.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never serialised
	Roles        []Role    `json:"roles"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRole returns true if the user holds the given role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Sentinel errors for auth operations.
var (
	ErrKeyGeneration      = errors.New("generating signing key pair failed")
	ErrSigning            = errors.New("signing token failed")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrNoCredentials      = errors.New("no credentials provided")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrEmailExists        = errors.New("email already registered")
	ErrForbidden          = errors.New("insufficient permissions")
)
