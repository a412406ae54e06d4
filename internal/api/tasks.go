package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskforge/taskforge-core/internal/audit"
	"github.com/taskforge/taskforge-core/internal/auth"
	"github.com/taskforge/taskforge-core/internal/task"
)

// handleAddTask creates a task and notifies its assignees.
func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var in task.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}
	if in.Name == "" {
		writeBadRequest(w, r, "task name is required")
		return
	}
	if in.ProjectID == "" {
		writeBadRequest(w, r, "project_id is required")
		return
	}

	created, err := s.tasks.Create(r.Context(), id.Subject, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionCreate, "task", created.ID,
		map[string]any{"name": created.Name, "project_id": created.ProjectID})

	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateTask updates a task's name, due date and assignees.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	taskID := chi.URLParam(r, "id")

	var in task.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}
	if in.Name == "" {
		writeBadRequest(w, r, "task name is required")
		return
	}

	updated, err := s.tasks.Update(r.Context(), id.Subject, taskID, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionUpdate, "task", updated.ID, nil)

	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteTask removes a task.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	taskID := chi.URLParam(r, "id")

	if err := s.tasks.Delete(r.Context(), id.Subject, taskID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionDelete, "task", taskID, nil)

	writeJSON(w, http.StatusOK, map[string]string{"deleted": taskID})
}

// handleTaskDetails returns the tasks assigned to the caller.
func (s *Server) handleTaskDetails(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	tasks, err := s.tasks.DetailsFor(r.Context(), id.Subject)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// handleFilteredTasks returns the caller's tasks narrowed to one status.
func (s *Server) handleFilteredTasks(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	status := task.Status(r.URL.Query().Get("status"))
	tasks, err := s.tasks.Filtered(r.Context(), id.Subject, status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// statusUpdateRequest is the payload for PATCH /api/tasks/update-status/{id}.
type statusUpdateRequest struct {
	Status task.Status `json:"status"`
}

// handleUpdateTaskStatus moves a task through the workflow. The route
// policy gates this path separately: project owners cannot use it.
func (s *Server) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	taskID := chi.URLParam(r, "id")

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid JSON body")
		return
	}

	updated, err := s.tasks.UpdateStatus(r.Context(), id.Subject, taskID, req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.recordAudit(r.Context(), audit.ActionStatusChange, "task", updated.ID,
		map[string]any{"status": string(updated.Status)})

	writeJSON(w, http.StatusOK, updated)
}

// handleTaskProgress returns the completion rollup for the caller's tasks.
func (s *Server) handleTaskProgress(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	progress, err := s.tasks.ProgressFor(r.Context(), id.Subject)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}
