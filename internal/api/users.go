package api

import (
	"encoding/json"
	"net/http"

	"github.com/taskforge/taskforge-core/internal/audit"
	"github.com/taskforge/taskforge-core/internal/auth"
)

// handleMe returns the account behind the current identity.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, r, "authentication required")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), id.Subject)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// updateMeRequest is the payload for updating the caller's own account.
// Empty fields are left unchanged.
type updateMeRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// handleUpdateMe changes the caller's name and/or password. A changed
// password does not invalidate the current session; the token stays
// valid until expiry.
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req updateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}
	if req.Name == "" && req.Password == "" {
		writeBadRequest(w, r, "nothing to update")
		return
	}

	if req.Name != "" {
		user.Name = req.Name
		if err := s.users.Update(r.Context(), user); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	if req.Password != "" {
		if len(req.Password) < minPasswordLength {
			writeBadRequest(w, r, "password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			writeInternalError(w, r, "internal server error")
			return
		}
		if err := s.users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	s.recordAudit(r.Context(), audit.ActionUpdate, "user", user.ID,
		map[string]any{"name_changed": req.Name != "", "password_changed": req.Password != ""})

	writeJSON(w, http.StatusOK, user)
}

// handleDeleteMe removes the caller's own account and clears the
// session cookie. The deleted account's token stays cryptographically
// valid until expiry but no longer resolves to a user.
func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.users.Delete(r.Context(), user.ID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionDelete, "user", user.ID,
		map[string]any{"email": user.Email, "self": true})

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, map[string]string{"deleted": user.Email})
}

// currentUser resolves the request identity to its stored account.
func (s *Server) currentUser(r *http.Request) (*auth.User, error) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return nil, auth.ErrNoCredentials
	}
	return s.users.GetByEmail(r.Context(), id.Subject)
}
