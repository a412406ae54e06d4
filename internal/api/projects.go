package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskforge/taskforge-core/internal/audit"
	"github.com/taskforge/taskforge-core/internal/auth"
	"github.com/taskforge/taskforge-core/internal/project"
)

// projectRequest is the payload for project create and update.
type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleAddProject creates a project owned by the caller.
func (s *Server) handleAddProject(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, r, "project name is required")
		return
	}

	p := &project.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
	}
	if err := s.projects.Create(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionCreate, "project", p.ID,
		map[string]any{"name": p.Name})

	writeJSON(w, http.StatusCreated, p)
}

// canMutateProject applies the owner-or-admin rule.
func canMutateProject(user *auth.User, p *project.Project) bool {
	return p.OwnerID == user.ID || user.HasRole(auth.RoleAdmin)
}

// handleUpdateProject updates a project's name and description.
// Only the owner or an admin may mutate a project.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := s.projects.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !canMutateProject(user, p) {
		writeUnauthorized(w, r, "access denied")
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, r, "project name is required")
		return
	}

	p.Name = req.Name
	p.Description = req.Description
	if err := s.projects.Update(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionUpdate, "project", p.ID, nil)

	writeJSON(w, http.StatusOK, p)
}

// handleDeleteProject removes a project and, via cascade, its tasks.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	projectID := chi.URLParam(r, "id")
	p, err := s.projects.GetByID(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !canMutateProject(user, p) {
		writeUnauthorized(w, r, "access denied")
		return
	}

	if err := s.projects.Delete(r.Context(), projectID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionDelete, "project", projectID, nil)

	writeJSON(w, http.StatusOK, map[string]string{"deleted": projectID})
}

// handleProjectDetails lists the caller's projects. Admins see every
// project, everyone else sees the ones they own.
func (s *Server) handleProjectDetails(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var projects []project.Project
	if user.HasRole(auth.RoleAdmin) {
		projects, err = s.projects.List(r.Context())
	} else {
		projects, err = s.projects.ListByOwner(r.Context(), user.ID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}
