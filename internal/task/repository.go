package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for task persistence.
//
// Assignees cross the boundary as user emails; the join table stores
// user IDs and the queries resolve between the two.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	ListForAssignee(ctx context.Context, email string, status Status) ([]Task, error)
	ListByProject(ctx context.Context, projectID string) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	SetAssignees(ctx context.Context, taskID string, emails []string) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new task repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new task and its assignee rows. The ID is generated
// if empty and the status defaults to todo.
func (r *SQLiteRepository) Create(ctx context.Context, t *Task) error {
	if t.ID == "" {
		t.ID = "tsk-" + uuid.NewString()[:8]
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	var dueDate any
	if t.DueDate != nil {
		dueDate = t.DueDate.UTC().Format(time.RFC3339)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, name, status, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Name, string(t.Status), dueDate,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}

	if err := insertAssignees(ctx, tx, t.ID, t.Assignees); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing task: %w", err)
	}
	return nil
}

// insertAssignees resolves each email to a user ID and links it to the
// task. An email with no matching user fails the whole batch.
func insertAssignees(ctx context.Context, tx *sql.Tx, taskID string, emails []string) error {
	for _, email := range emails {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id)
			 SELECT ?, id FROM users WHERE email = ?`,
			taskID, email,
		)
		if err != nil {
			return fmt.Errorf("assigning task: %w", err)
		}
		rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
		if rows == 0 {
			return fmt.Errorf("%w: %s", ErrUnknownAssignee, email)
		}
	}
	return nil
}

// GetByID retrieves a task with its assignee emails.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, status, due_date, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)

	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}

	t.Assignees, err = r.assignees(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListForAssignee returns the tasks assigned to a user, optionally
// narrowed to one status. An empty status matches all.
func (r *SQLiteRepository) ListForAssignee(ctx context.Context, email string, status Status) ([]Task, error) {
	query := `SELECT t.id, t.project_id, t.name, t.status, t.due_date, t.created_at, t.updated_at
		 FROM tasks t
		 JOIN task_assignees ta ON ta.task_id = t.id
		 JOIN users u ON u.id = ta.user_id
		 WHERE u.email = ?`
	args := []any{email}

	if status != "" {
		query += " AND t.status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY t.created_at ASC"

	return r.list(ctx, query, args...)
}

// ListByProject returns all tasks in a project.
func (r *SQLiteRepository) ListByProject(ctx context.Context, projectID string) ([]Task, error) {
	return r.list(ctx,
		`SELECT id, project_id, name, status, due_date, created_at, updated_at
		 FROM tasks WHERE project_id = ? ORDER BY created_at ASC`,
		projectID)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	for i := range tasks {
		tasks[i].Assignees, err = r.assignees(ctx, tasks[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return tasks, nil
}

// assignees returns the emails of a task's assignees.
func (r *SQLiteRepository) assignees(ctx context.Context, taskID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.email FROM task_assignees ta
		 JOIN users u ON u.id = ta.user_id
		 WHERE ta.task_id = ? ORDER BY u.email ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying assignees: %w", err)
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scanning assignee: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignees: %w", err)
	}

	return emails, nil
}

// Update modifies a task's name and due date.
func (r *SQLiteRepository) Update(ctx context.Context, t *Task) error {
	now := time.Now().UTC()
	t.UpdatedAt = now

	var dueDate any
	if t.DueDate != nil {
		dueDate = t.DueDate.UTC().Format(time.RFC3339)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET name = ?, due_date = ?, updated_at = ? WHERE id = ?`,
		t.Name, dueDate, now.Format(time.RFC3339), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus moves a task to a new workflow status.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("updating task status: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAssignees replaces a task's assignee list.
func (r *SQLiteRepository) SetAssignees(ctx context.Context, taskID string, emails []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM task_assignees WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("clearing assignees: %w", err)
	}

	if err := insertAssignees(ctx, tx, taskID, emails); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing assignees: %w", err)
	}
	return nil
}

// Delete removes a task. Assignee rows cascade via foreign keys.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is an interface covering sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*Task, error) {
	var t Task
	var status string
	var dueDate sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&t.ID, &t.ProjectID, &t.Name, &status, &dueDate, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.Status = Status(status)
	if dueDate.Valid {
		if d, err := time.Parse(time.RFC3339, dueDate.String); err == nil {
			t.DueDate = &d
		}
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &t, nil
}
