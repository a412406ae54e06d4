package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const usersSchema = `
CREATE TABLE users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	roles         TEXT NOT NULL,
	is_active     INTEGER NOT NULL DEFAULT 1,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
`

func newTestUserRepo(t *testing.T) *SQLiteUserRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(usersSchema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	return NewUserRepository(db)
}

func testUser(email string, roles ...Role) *User {
	return &User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA",
		Roles:        roles,
		IsActive:     true,
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	u := testUser("alice@example.com", RoleUser, RoleProjectOwner)
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !strings.HasPrefix(u.ID, "usr-") {
		t.Errorf("generated ID = %q, want usr- prefix", u.ID)
	}

	byID, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("Email = %q, want alice@example.com", byID.Email)
	}
	if len(byID.Roles) != 2 || byID.Roles[0] != RoleUser || byID.Roles[1] != RoleProjectOwner {
		t.Errorf("Roles = %v, want [user project-owner]", byID.Roles)
	}
	if !byID.IsActive {
		t.Error("IsActive = false, want true")
	}

	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("GetByEmail ID = %q, want %q", byEmail.ID, u.ID)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testUser("dup@example.com", RoleUser)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := repo.Create(ctx, testUser("dup@example.com", RoleUser))
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("Create() duplicate error = %v, want ErrEmailExists", err)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "usr-missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByEmail(ctx, "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByEmail() error = %v, want ErrUserNotFound", err)
	}
	if err := repo.Delete(ctx, "usr-missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Delete() error = %v, want ErrUserNotFound", err)
	}
	if err := repo.UpdateRoles(ctx, "usr-missing", []Role{RoleAdmin}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateRoles() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_UpdateRoles(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	u := testUser("promote@example.com", RoleUser)
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.UpdateRoles(ctx, u.ID, []Role{RoleUser, RoleAdmin}); err != nil {
		t.Fatalf("UpdateRoles() error = %v", err)
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.HasRole(RoleAdmin) {
		t.Error("user should hold admin after UpdateRoles")
	}
	if !got.HasRole(RoleUser) {
		t.Error("user should keep their original role")
	}
}

func TestUserRepository_ListAndCount(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if err := repo.Create(ctx, testUser(email, RoleUser)); err != nil {
			t.Fatalf("Create(%s) error = %v", email, err)
		}
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 3 {
		t.Errorf("List() returned %d users, want 3", len(users))
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	u := testUser("bye@example.com", RoleUser)
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() after delete: error = %v, want ErrUserNotFound", err)
	}
}
