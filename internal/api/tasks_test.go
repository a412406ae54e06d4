package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskforge/taskforge-core/internal/audit"
	"github.com/taskforge/taskforge-core/internal/task"
)

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) *task.Task {
	t.Helper()
	var tk task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tk); err != nil {
		t.Fatalf("decoding task response: %v", err)
	}
	return &tk
}

func TestTaskLifecycle(t *testing.T) {
	_, router := newTestServer(t)
	register(t, router, "alice@example.com", "password123", "1")
	cookie := login(t, router, "alice@example.com", "password123")

	// Create a project to hang the task on.
	rec := do(router, http.MethodPost, "/api/projects/add",
		`{"name":"Launch","description":"Q4 launch"}`, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add project status = %d: %s", rec.Code, rec.Body.String())
	}
	var prj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &prj); err != nil {
		t.Fatalf("decoding project: %v", err)
	}

	// Add a task assigned to the caller.
	body := fmt.Sprintf(`{"project_id":%q,"name":"Write docs","assignees":["alice@example.com"]}`, prj.ID)
	rec = do(router, http.MethodPost, "/api/tasks/add", body, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add task status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeTask(t, rec)
	if created.Status != task.StatusTodo {
		t.Errorf("new task status = %q, want todo", created.Status)
	}

	// Details lists it.
	rec = do(router, http.MethodGet, "/api/tasks/details", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("details status = %d", rec.Code)
	}
	var tasks []task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decoding details: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != created.ID {
		t.Fatalf("details = %v, want the created task", tasks)
	}

	// Move it through the workflow.
	rec = do(router, http.MethodPatch, "/api/tasks/update-status/"+created.ID,
		`{"status":"done"}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("update-status status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeTask(t, rec); got.Status != task.StatusDone {
		t.Errorf("status after update = %q, want done", got.Status)
	}

	// Progress reflects the change.
	rec = do(router, http.MethodGet, "/api/tasks/progress", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rec.Code)
	}
	var progress task.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &progress); err != nil {
		t.Fatalf("decoding progress: %v", err)
	}
	if progress.Total != 1 || progress.Done != 1 || progress.Percent != 100 {
		t.Errorf("progress = %+v, want 1/1 at 100%%", progress)
	}

	// Filtered by status.
	rec = do(router, http.MethodGet, "/api/tasks/filtered?status=done", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decoding filtered: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("filtered(done) = %d tasks, want 1", len(tasks))
	}

	rec = do(router, http.MethodGet, "/api/tasks/filtered?status=bogus", "", cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("filtered with bogus status = %d, want 400", rec.Code)
	}

	// Delete it.
	rec = do(router, http.MethodDelete, "/api/tasks/delete/"+created.ID, "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(router, http.MethodDelete, "/api/tasks/delete/"+created.ID, "", cookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestTaskAssignmentCreatesNotification(t *testing.T) {
	_, router := newTestServer(t)
	register(t, router, "alice@example.com", "password123", "1")
	register(t, router, "bob@example.com", "password123", "1")
	alice := login(t, router, "alice@example.com", "password123")
	bob := login(t, router, "bob@example.com", "password123")

	body := `{"project_id":"prj-1","name":"Pair review","assignees":["bob@example.com"]}`
	rec := do(router, http.MethodPost, "/api/tasks/add", body, alice)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add task status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodGet, "/api/notifications/unread-count", "", bob)
	if rec.Code != http.StatusOK {
		t.Fatalf("unread-count status = %d", rec.Code)
	}
	var count struct {
		Unread int `json:"unread"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &count); err != nil {
		t.Fatalf("decoding unread count: %v", err)
	}
	if count.Unread != 1 {
		t.Errorf("bob's unread count = %d, want 1", count.Unread)
	}

	// Read and mark it.
	rec = do(router, http.MethodGet, "/api/notifications", "", bob)
	if rec.Code != http.StatusOK {
		t.Fatalf("list notifications status = %d", rec.Code)
	}
	var list []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding notifications: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("bob has %d notifications, want 1", len(list))
	}

	rec = do(router, http.MethodPatch, "/api/notifications/"+list[0].ID+"/read", "", bob)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read status = %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/api/notifications/unread-count", "", bob)
	if err := json.Unmarshal(rec.Body.Bytes(), &count); err != nil {
		t.Fatalf("decoding unread count: %v", err)
	}
	if count.Unread != 0 {
		t.Errorf("unread count after read = %d, want 0", count.Unread)
	}
}

func TestProjectOwnerOrAdminRule(t *testing.T) {
	_, router := newTestServer(t)
	register(t, router, "root@example.com", "password123", "1") // admin
	register(t, router, "owner@example.com", "password123", "2")
	register(t, router, "other@example.com", "password123", "2")
	owner := login(t, router, "owner@example.com", "password123")
	other := login(t, router, "other@example.com", "password123")
	admin := login(t, router, "root@example.com", "password123")

	rec := do(router, http.MethodPost, "/api/projects/add",
		`{"name":"Mine","description":""}`, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add project status = %d", rec.Code)
	}
	var prj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &prj); err != nil {
		t.Fatalf("decoding project: %v", err)
	}

	// A non-owner cannot mutate it.
	rec = do(router, http.MethodPut, "/api/projects/update/"+prj.ID,
		`{"name":"Stolen","description":""}`, other)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("non-owner update status = %d, want 401", rec.Code)
	}

	// The owner can.
	rec = do(router, http.MethodPut, "/api/projects/update/"+prj.ID,
		`{"name":"Renamed","description":""}`, owner)
	if rec.Code != http.StatusOK {
		t.Errorf("owner update status = %d, want 200", rec.Code)
	}

	// So can an admin.
	rec = do(router, http.MethodDelete, "/api/projects/delete/"+prj.ID, "", admin)
	if rec.Code != http.StatusOK {
		t.Errorf("admin delete status = %d, want 200", rec.Code)
	}
}

func TestAdminGrantRevokeAndAudit(t *testing.T) {
	_, router := newTestServer(t)
	register(t, router, "root@example.com", "password123", "1")
	register(t, router, "user@example.com", "password123", "1")
	admin := login(t, router, "root@example.com", "password123")

	rec := do(router, http.MethodPost, "/api/admin/users/user@example.com/grant-admin", "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("grant-admin status = %d: %s", rec.Code, rec.Body.String())
	}
	if u := decodeUser(t, rec); !u.HasRole("admin") {
		t.Error("user should hold admin after grant")
	}

	// The promotion only shows up in tokens issued afterwards.
	promoted := login(t, router, "user@example.com", "password123")
	rec = do(router, http.MethodGet, "/api/admin/users", "", promoted)
	if rec.Code != http.StatusOK {
		t.Errorf("promoted user on admin route = %d, want 200", rec.Code)
	}

	rec = do(router, http.MethodPost, "/api/admin/users/user@example.com/revoke-admin", "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("revoke-admin status = %d", rec.Code)
	}
	if u := decodeUser(t, rec); u.HasRole("admin") {
		t.Error("user should lose admin after revoke")
	}

	// The audit trail recorded the role changes and logins.
	rec = do(router, http.MethodGet, "/api/admin/audit?action=role-change", "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status = %d", rec.Code)
	}
	var result audit.ListResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding audit result: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("role-change audit entries = %d, want 2", result.Total)
	}

	rec = do(router, http.MethodGet, "/api/admin/audit?action=login", "", admin)
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding audit result: %v", err)
	}
	if result.Total < 2 {
		t.Errorf("login audit entries = %d, want at least 2", result.Total)
	}
}

func TestAdminDeleteUser(t *testing.T) {
	_, router := newTestServer(t)
	register(t, router, "root@example.com", "password123", "1")
	register(t, router, "bye@example.com", "password123", "1")
	admin := login(t, router, "root@example.com", "password123")

	rec := do(router, http.MethodDelete, "/api/admin/delete/bye@example.com", "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete user status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodDelete, "/api/admin/delete/bye@example.com", "", admin)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}

	// The deleted user's credentials no longer work.
	body := `{"email":"bye@example.com","password":"password123"}`
	rec = do(router, http.MethodPost, "/api/auth/login", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("deleted user login = %d, want 401", rec.Code)
	}
}
