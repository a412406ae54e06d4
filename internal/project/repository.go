// Package project manages workspace projects, the containers tasks
// belong to. Each project has a single owning user; mutations are
// restricted to the owner or an admin at the API layer.
package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a project does not exist.
var ErrNotFound = errors.New("project not found")

// Project is a container of tasks owned by one user.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repository defines the interface for project persistence.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Project, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new project repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const projectColumns = "id, name, description, owner_id, created_at, updated_at"

// Create inserts a new project. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, p *Project) error {
	if p.ID == "" {
		p.ID = "prj-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.OwnerID,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by its ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	return scanProject(row)
}

// List returns all projects ordered by creation date.
func (r *SQLiteRepository) List(ctx context.Context) ([]Project, error) {
	return r.list(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY created_at ASC")
}

// ListByOwner returns the projects owned by one user.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]Project, error) {
	return r.list(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE owner_id = ? ORDER BY created_at ASC",
		ownerID)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}

	return projects, nil
}

// Update modifies a project's name and description.
func (r *SQLiteRepository) Update(ctx context.Context, p *Project) error {
	now := time.Now().UTC()
	p.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, now.Format(time.RFC3339), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project. Tasks under it cascade via foreign keys.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
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

func scanProject(s scanner) (*Project, error) {
	var p Project
	var createdAt, updatedAt string

	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &p, nil
}
