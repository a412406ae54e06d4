package task

import (
	"context"
	"fmt"
	"time"

	"github.com/taskforge/taskforge-core/internal/auth"
	"github.com/taskforge/taskforge-core/internal/infrastructure/logging"
	"github.com/taskforge/taskforge-core/internal/notification"
)

// Event types published on task activity.
const (
	EventTaskCreated   = "task.created"
	EventTaskUpdated   = "task.updated"
	EventTaskDeleted   = "task.deleted"
	EventStatusChanged = "task.status_changed"
)

// Event describes one task activity for downstream consumers (the
// WebSocket hub, the MQTT bridge). Targets are the assignee emails the
// event is addressed to.
type Event struct {
	Type      string    `json:"type"`
	TaskID    string    `json:"task_id"`
	ProjectID string    `json:"project_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Targets   []string  `json:"targets,omitempty"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// Publisher delivers task events to interested consumers. Publish must
// not block the request path; implementations buffer or drop.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Publishers fans each event out to every member. It lets main compose
// the WebSocket hub and the MQTT bridge behind one Publisher.
type Publishers []Publisher

// Publish delivers the event to each publisher in order.
func (ps Publishers) Publish(ctx context.Context, event Event) {
	for _, p := range ps {
		p.Publish(ctx, event)
	}
}

// Service implements the task workflows: mutations persist through the
// repository, then fan out one notification per assignee and publish a
// single event.
type Service struct {
	repo          Repository
	users         auth.UserRepository
	notifications notification.Repository
	publisher     Publisher
	log           *logging.Logger
}

// NewService creates a task service. The publisher may be nil when no
// event consumers are configured.
func NewService(repo Repository, users auth.UserRepository, notifications notification.Repository, publisher Publisher, log *logging.Logger) *Service {
	return &Service{
		repo:          repo,
		users:         users,
		notifications: notifications,
		publisher:     publisher,
		log:           log,
	}
}

// CreateInput is the payload for creating a task.
type CreateInput struct {
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	DueDate   *time.Time `json:"due_date"`
	Assignees []string   `json:"assignees"`
}

// Create persists a new task and notifies its assignees.
func (s *Service) Create(ctx context.Context, actor string, in CreateInput) (*Task, error) {
	if in.Status != "" && !IsValidStatus(in.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, in.Status)
	}

	t := &Task{
		ProjectID: in.ProjectID,
		Name:      in.Name,
		Status:    in.Status,
		DueDate:   in.DueDate,
		Assignees: in.Assignees,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.fanOut(ctx, Event{
		Type:      EventTaskCreated,
		TaskID:    t.ID,
		ProjectID: t.ProjectID,
		Actor:     actor,
		Targets:   t.Assignees,
		Message:   fmt.Sprintf("You were assigned to task %q", t.Name),
	})

	return t, nil
}

// UpdateInput is the payload for updating a task. A nil Assignees
// leaves the assignment untouched; an empty slice clears it.
type UpdateInput struct {
	Name      string     `json:"name"`
	DueDate   *time.Time `json:"due_date"`
	Assignees []string   `json:"assignees"`
}

// Update modifies a task's name, due date and assignees. Newly added
// assignees are notified.
func (s *Service) Update(ctx context.Context, actor, id string, in UpdateInput) (*Task, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current.Name = in.Name
	current.DueDate = in.DueDate
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}

	var added []string
	if in.Assignees != nil {
		added = newAssignees(current.Assignees, in.Assignees)
		if err := s.repo.SetAssignees(ctx, id, in.Assignees); err != nil {
			return nil, err
		}
		current.Assignees = in.Assignees
	}

	s.fanOut(ctx, Event{
		Type:      EventTaskUpdated,
		TaskID:    current.ID,
		ProjectID: current.ProjectID,
		Actor:     actor,
		Targets:   added,
		Message:   fmt.Sprintf("You were assigned to task %q", current.Name),
	})

	return current, nil
}

// UpdateStatus moves a task through the workflow and notifies every
// assignee of the change.
func (s *Service) UpdateStatus(ctx context.Context, actor, id string, status Status) (*Task, error) {
	if !IsValidStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	t.Status = status

	s.fanOut(ctx, Event{
		Type:      EventStatusChanged,
		TaskID:    t.ID,
		ProjectID: t.ProjectID,
		Actor:     actor,
		Targets:   t.Assignees,
		Message:   fmt.Sprintf("Task %q moved to %s", t.Name, status),
	})

	return t, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, actor, id string) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.fanOut(ctx, Event{
		Type:      EventTaskDeleted,
		TaskID:    t.ID,
		ProjectID: t.ProjectID,
		Actor:     actor,
		Targets:   t.Assignees,
		Message:   fmt.Sprintf("Task %q was deleted", t.Name),
	})

	return nil
}

// Get retrieves a single task.
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

// DetailsFor returns the tasks assigned to one user.
func (s *Service) DetailsFor(ctx context.Context, email string) ([]Task, error) {
	return s.repo.ListForAssignee(ctx, email, "")
}

// Filtered returns the caller's tasks narrowed to one status.
func (s *Service) Filtered(ctx context.Context, email string, status Status) ([]Task, error) {
	if !IsValidStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return s.repo.ListForAssignee(ctx, email, status)
}

// ProgressFor computes the completion rollup over a user's tasks. No
// tasks means zero percent.
func (s *Service) ProgressFor(ctx context.Context, email string) (*Progress, error) {
	tasks, err := s.repo.ListForAssignee(ctx, email, "")
	if err != nil {
		return nil, err
	}

	p := &Progress{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == StatusDone {
			p.Done++
		}
	}
	if p.Total > 0 {
		p.Percent = float64(p.Done) / float64(p.Total) * 100 //nolint:mnd // percentage
	}
	return p, nil
}

// fanOut stores one notification per target and hands the event to the
// publisher. Failures are logged, not returned: the task mutation has
// already committed and notification delivery is best effort.
func (s *Service) fanOut(ctx context.Context, event Event) {
	event.At = time.Now().UTC()

	for _, email := range event.Targets {
		user, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			s.log.Warn("skipping notification for unknown assignee", "email", email, "error", err)
			continue
		}
		n := &notification.Notification{UserID: user.ID, Message: event.Message}
		if err := s.notifications.Create(ctx, n); err != nil {
			s.log.Error("storing notification", "user_id", user.ID, "error", err)
		}
	}

	if s.publisher != nil {
		s.publisher.Publish(ctx, event)
	}
}

// newAssignees returns the emails present in next but not in prev.
func newAssignees(prev, next []string) []string {
	seen := make(map[string]struct{}, len(prev))
	for _, e := range prev {
		seen[e] = struct{}{}
	}

	var added []string
	for _, e := range next {
		if _, ok := seen[e]; !ok {
			added = append(added, e)
		}
	}
	return added
}
