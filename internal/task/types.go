// Package task manages tasks inside projects: creation, assignment,
// the status workflow and the progress rollup. Mutations fan out
// notifications to assignees and publish events for external
// integrations.
package task

import (
	"errors"
	"time"
)

// Status is a task's position in the workflow.
type Status string

// Workflow statuses.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// IsValidStatus reports whether s is a known workflow status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is a unit of work inside a project. Assignees are user emails,
// the same identifier tokens carry as their subject.
type Task struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Assignees []string   `json:"assignees"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Progress is the completion rollup over a set of tasks.
type Progress struct {
	Total   int     `json:"total"`
	Done    int     `json:"done"`
	Percent float64 `json:"percent"`
}

// Sentinel errors for the task domain.
var (
	ErrNotFound        = errors.New("task not found")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrUnknownAssignee = errors.New("unknown assignee")
)
