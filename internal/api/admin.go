package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskforge/taskforge-core/internal/audit"
	"github.com/taskforge/taskforge-core/internal/auth"
)

// handleListUsers returns every account, oldest first.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// handleDeleteUser removes an account by email.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	user, err := s.users.GetByEmail(r.Context(), email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.users.Delete(r.Context(), user.ID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionDelete, "user", user.ID,
		map[string]any{"email": email})

	writeJSON(w, http.StatusOK, map[string]string{"deleted": email})
}

// handleGrantAdmin adds the admin role to an account. Granting to an
// existing admin is a no-op success.
func (s *Server) handleGrantAdmin(w http.ResponseWriter, r *http.Request) {
	s.changeAdminRole(w, r, true)
}

// handleRevokeAdmin removes the admin role from an account.
func (s *Server) handleRevokeAdmin(w http.ResponseWriter, r *http.Request) {
	s.changeAdminRole(w, r, false)
}

// changeAdminRole grants or revokes the admin role. The change affects
// tokens issued after it; sessions already issued keep their role list
// until expiry.
func (s *Server) changeAdminRole(w http.ResponseWriter, r *http.Request, grant bool) {
	email := chi.URLParam(r, "email")

	user, err := s.users.GetByEmail(r.Context(), email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	roles := make([]auth.Role, 0, len(user.Roles)+1)
	for _, role := range user.Roles {
		if role != auth.RoleAdmin {
			roles = append(roles, role)
		}
	}
	if grant {
		roles = append(roles, auth.RoleAdmin)
	}

	if err := s.users.UpdateRoles(r.Context(), user.ID, roles); err != nil {
		writeDomainError(w, r, err)
		return
	}
	user.Roles = roles

	s.recordAudit(r.Context(), audit.ActionRoleChange, "user", user.ID,
		map[string]any{"email": email, "admin": grant})

	writeJSON(w, http.StatusOK, user)
}

// handleAuditTrail lists audit entries, filtered by query parameters:
// action, entity_type, subject, limit, offset.
func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		Subject:    q.Get("subject"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
