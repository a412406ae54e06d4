package audit

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const auditSchema = `
CREATE TABLE audit_logs (
	id          TEXT PRIMARY KEY,
	action      TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   TEXT,
	subject     TEXT,
	details     TEXT,
	created_at  TEXT NOT NULL
);
`

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(auditSchema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	return NewSQLiteRepository(db)
}

func TestRepository_CreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entry := &Entry{
		Action:     ActionLogin,
		EntityType: "user",
		Subject:    "alice@example.com",
		Details:    map[string]any{"remote": "10.0.0.1"},
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !strings.HasPrefix(entry.ID, "aud-") {
		t.Errorf("generated ID = %q, want aud- prefix", entry.ID)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt should be populated on create")
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("List() total = %d, entries = %d, want 1/1", result.Total, len(result.Entries))
	}

	got := result.Entries[0]
	if got.Action != ActionLogin || got.Subject != "alice@example.com" {
		t.Errorf("entry = %+v, want login by alice@example.com", got)
	}
	if got.Details["remote"] != "10.0.0.1" {
		t.Errorf("Details = %v, want remote=10.0.0.1", got.Details)
	}
}

func TestRepository_ListFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []Entry{
		{Action: ActionLogin, EntityType: "user", Subject: "alice@example.com"},
		{Action: ActionCreate, EntityType: "task", EntityID: "tsk-1", Subject: "alice@example.com"},
		{Action: ActionCreate, EntityType: "project", EntityID: "prj-1", Subject: "bob@example.com"},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filter", Filter{}, 3},
		{"by action", Filter{Action: ActionCreate}, 2},
		{"by entity type", Filter{EntityType: "task"}, 1},
		{"by subject", Filter{Subject: "alice@example.com"}, 2},
		{"combined", Filter{Action: ActionCreate, Subject: "bob@example.com"}, 1},
		{"no match", Filter{Action: ActionDelete}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if result.Total != tt.want {
				t.Errorf("Total = %d, want %d", result.Total, tt.want)
			}
			if len(result.Entries) != tt.want {
				t.Errorf("len(Entries) = %d, want %d", len(result.Entries), tt.want)
			}
		})
	}
}

func TestRepository_ListPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		e := &Entry{
			Action:     ActionUpdate,
			EntityType: "task",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	result, err := repo.List(ctx, Filter{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(result.Entries))
	}

	// Most recent first.
	if result.Entries[0].CreatedAt.Before(result.Entries[1].CreatedAt) {
		t.Error("entries should be ordered most recent first")
	}

	rest, err := repo.List(ctx, Filter{Limit: 10, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rest.Entries) != 3 {
		t.Errorf("offset page len = %d, want 3", len(rest.Entries))
	}
}

func TestRepository_LimitClamping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	result, err := repo.List(ctx, Filter{Limit: 1000, Offset: -5})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Limit != 200 {
		t.Errorf("Limit = %d, want clamped to 200", result.Limit)
	}
	if result.Offset != 0 {
		t.Errorf("Offset = %d, want clamped to 0", result.Offset)
	}
}
