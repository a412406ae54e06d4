package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskforge/taskforge-core/internal/audit"
	"github.com/taskforge/taskforge-core/internal/auth"
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// secondsPerMinute converts the configured token TTL to a cookie Max-Age.
const secondsPerMinute = 60

// registerRequest is the payload for POST /api/auth/register.
type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// loginRequest is the payload for POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates a new user account.
//
// The role query parameter selects the account type: 1 for user, 2 for
// project-owner. The very first account additionally receives the
// admin role so a fresh install always has an administrator.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}

	if !auth.IsValidEmail(req.Email) {
		writeBadRequest(w, r, "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, r, "password must be at least 8 characters")
		return
	}

	role, ok := roleFromQuery(r.URL.Query().Get("role"))
	if !ok {
		writeBadRequest(w, r, "role must be 1 (user) or 2 (project-owner)")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		writeInternalError(w, r, "internal server error")
		return
	}

	roles := []auth.Role{role}
	count, err := s.users.Count(r.Context())
	if err != nil {
		s.logger.Error("counting users", "error", err)
		writeInternalError(w, r, "internal server error")
		return
	}
	if count == 0 {
		roles = append(roles, auth.RoleAdmin)
	}

	user := &auth.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Roles:        roles,
		IsActive:     true,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionRegister, "user", user.ID,
		map[string]any{"email": user.Email})

	writeJSON(w, http.StatusCreated, user)
}

// roleFromQuery parses the numeric role selector from the register
// endpoint. Only the non-privileged roles can be chosen at signup.
func roleFromQuery(raw string) (auth.Role, bool) {
	switch raw {
	case "1":
		return auth.RoleUser, true
	case "2":
		return auth.RoleProjectOwner, true
	}
	return "", false
}

// handleLogin exchanges credentials for a session cookie.
//
// The response sets the jwt cookie: HttpOnly, Path=/, Max-Age bound to
// the token TTL. Wrong email and wrong password return the same 401 so
// the endpoint cannot be used to enumerate accounts.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeUnauthorized(w, r, "wrong credentials")
			return
		}
		s.logger.Error("looking up user", "error", err)
		writeInternalError(w, r, "internal server error")
		return
	}
	if !user.IsActive {
		writeUnauthorized(w, r, "wrong credentials")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("verifying password", "error", err)
		writeInternalError(w, r, "internal server error")
		return
	}
	if !ok {
		writeUnauthorized(w, r, "wrong credentials")
		return
	}

	token, err := auth.IssueToken(s.keys, s.secCfg.JWT.Issuer, user.Email, user.Roles, s.secCfg.JWT.TokenTTL)
	if err != nil {
		s.logger.Error("issuing token", "error", err)
		writeInternalError(w, r, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   s.secCfg.JWT.TokenTTL * secondsPerMinute,
	})

	s.recordAudit(auth.WithIdentity(r.Context(), &auth.Identity{Subject: user.Email, Roles: user.Roles}),
		audit.ActionLogin, "user", user.ID, nil)

	writeJSON(w, http.StatusOK, user)
}

// handleLogout clears the session cookie.
//
// Tokens are stateless so the old token stays valid until its expiry;
// clearing the cookie just stops the browser from sending it.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	s.recordAudit(r.Context(), audit.ActionLogout, "user", "", nil)

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
