package project

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const projectsSchema = `
CREATE TABLE projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	owner_id    TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(projectsSchema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	return NewSQLiteRepository(db)
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := &Project{Name: "Website Redesign", Description: "Q3 refresh", OwnerID: "usr-1"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !strings.HasPrefix(p.ID, "prj-") {
		t.Errorf("generated ID = %q, want prj- prefix", p.ID)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Website Redesign" || got.OwnerID != "usr-1" {
		t.Errorf("got %+v, want name and owner preserved", got)
	}
}

func TestRepository_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "prj-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "prj-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(ctx, &Project{ID: "prj-missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_ListByOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, p := range []*Project{
		{Name: "A", Description: "", OwnerID: "usr-1"},
		{Name: "B", Description: "", OwnerID: "usr-1"},
		{Name: "C", Description: "", OwnerID: "usr-2"},
	} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() = %d projects, want 3", len(all))
	}

	mine, err := repo.ListByOwner(ctx, "usr-1")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("ListByOwner(usr-1) = %d projects, want 2", len(mine))
	}
}

func TestRepository_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := &Project{Name: "Before", Description: "old", OwnerID: "usr-1"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	p.Name = "After"
	p.Description = "new"
	if err := repo.Update(ctx, p); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "After" || got.Description != "new" {
		t.Errorf("got %+v, want updated fields", got)
	}
	if got.OwnerID != "usr-1" {
		t.Error("Update must not change the owner")
	}
}
