package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// Everything under /api passes the authentication gate and the route
// policy; /healthz and /docs sit outside it.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check and API docs (no auth required)
	r.Get("/healthz", s.handleHealth)
	r.Get("/docs", s.handleDocs)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticateMiddleware)
		r.Use(s.authorizeMiddleware)

		// Auth endpoints. Register and login are public via the
		// policy; logout requires a valid session.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", s.handleMe)
			r.Patch("/me", s.handleUpdateMe)
			r.Delete("/me", s.handleDeleteMe)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/add", s.handleAddTask)
			r.Put("/update/{id}", s.handleUpdateTask)
			r.Delete("/delete/{id}", s.handleDeleteTask)
			r.Get("/details", s.handleTaskDetails)
			r.Get("/filtered", s.handleFilteredTasks)
			r.Patch("/update-status/{id}", s.handleUpdateTaskStatus)
			r.Get("/progress", s.handleTaskProgress)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/add", s.handleAddProject)
			r.Put("/update/{id}", s.handleUpdateProject)
			r.Delete("/delete/{id}", s.handleDeleteProject)
			r.Get("/details", s.handleProjectDetails)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Get("/unread-count", s.handleUnreadCount)
			r.Patch("/{id}/read", s.handleMarkNotificationRead)
			r.Delete("/delete/{id}", s.handleDeleteNotification)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", s.handleListUsers)
			r.Delete("/delete/{email}", s.handleDeleteUser)
			r.Post("/users/{email}/grant-admin", s.handleGrantAdmin)
			r.Post("/users/{email}/revoke-admin", s.handleRevokeAdmin)
			r.Get("/audit", s.handleAuditTrail)
		})

		// WebSocket event stream (any authenticated role via /api/ rule)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleDocs returns a machine-readable index of the API surface.
func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "taskforge-core",
		"version": s.version,
		"endpoints": map[string]string{
			"POST /api/auth/register":               "create an account (?role=1 user, ?role=2 project-owner)",
			"POST /api/auth/login":                  "exchange credentials for a session cookie",
			"POST /api/auth/logout":                 "clear the session cookie",
			"GET /api/users/me":                     "current identity",
			"PATCH /api/users/me":                   "update own name or password",
			"DELETE /api/users/me":                  "delete own account",
			"POST /api/tasks/add":                   "create a task",
			"PUT /api/tasks/update/{id}":            "update a task",
			"DELETE /api/tasks/delete/{id}":         "delete a task",
			"GET /api/tasks/details":                "tasks assigned to the caller",
			"GET /api/tasks/filtered":               "caller's tasks filtered by ?status=",
			"PATCH /api/tasks/update-status/{id}":   "move a task through the workflow",
			"GET /api/tasks/progress":               "completion rollup for the caller",
			"POST /api/projects/add":                "create a project",
			"PUT /api/projects/update/{id}":         "update a project (owner or admin)",
			"DELETE /api/projects/delete/{id}":      "delete a project (owner or admin)",
			"GET /api/projects/details":             "caller's projects (all for admins)",
			"GET /api/notifications":                "caller's notifications",
			"GET /api/notifications/unread-count":   "unread notification count",
			"PATCH /api/notifications/{id}/read":    "mark a notification read",
			"DELETE /api/notifications/delete/{id}": "delete a notification",
			"GET /api/admin/users":                  "list accounts (admin)",
			"DELETE /api/admin/delete/{email}":      "delete an account (admin)",
			"POST /api/admin/users/{email}/grant-admin":  "grant the admin role",
			"POST /api/admin/users/{email}/revoke-admin": "revoke the admin role",
			"GET /api/admin/audit":                       "audit trail (admin)",
			"GET /api/ws":                                "WebSocket event stream",
		},
	})
}
