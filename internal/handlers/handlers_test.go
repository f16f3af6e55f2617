package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/cache"
	"github.com/projectpulse/backend/internal/middleware"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/internal/services"
	"github.com/projectpulse/backend/internal/testutil"
	"github.com/projectpulse/backend/pkg/response"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for AuthRequired in handler tests.
func asUser(id uint, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextUsername, "tester")
		c.Set(middleware.ContextRole, string(role))
		c.Next()
	}
}

func serve(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response %s: %v", w.Body.String(), err)
	}
}

// expectError checks the status line and the {code, message} body.
func expectError(t *testing.T, w *httptest.ResponseRecorder, status, code int, message string) {
	t.Helper()
	if w.Code != status {
		t.Errorf("expected status %d, got %d", status, w.Code)
	}
	var body response.Body
	decode(t, w, &body)
	if body.Code != code || body.Message != message {
		t.Errorf("body = %+v, expected code %d message %q", body, code, message)
	}
}

func seedUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Name:       name,
		Username:   name,
		Email:      name + "@gmail.com",
		Password:   "x",
		Role:       role,
		Status:     models.StatusPtr(models.UserActive),
		IsVerified: true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedProject(t *testing.T, svc *services.ProjectService, name string, managerID uint) *models.Project {
	t.Helper()
	p, err := svc.CreateOrAssignProject(&services.CreateProjectRequest{ProjectName: name, ManagerID: &managerID})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func TestHealth_Healthy(t *testing.T) {
	db := testutil.OpenDB(t, models.GuardOptions{})
	h := NewHealthHandler(db, services.NewSyncMailQueue(nil), cache.NewMemory())

	r := gin.New()
	r.GET("/health", h.CheckHealth)

	w := serve(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body struct {
		Status     string            `json:"status"`
		Service    string            `json:"service"`
		Components map[string]string `json:"components"`
	}
	decode(t, w, &body)
	if body.Status != "healthy" {
		t.Errorf("status = %s, expected healthy", body.Status)
	}
	if body.Service != "projectpulse" {
		t.Errorf("service = %s, expected projectpulse", body.Service)
	}
	if body.Components["queue_mode"] != "sync" {
		t.Errorf("queue_mode = %s, expected sync", body.Components["queue_mode"])
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	db := testutil.OpenDB(t, models.GuardOptions{})
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r := gin.New()
	r.GET("/health", NewHealthHandler(db, nil, cache.NewMemory()).CheckHealth)

	w := serve(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"unhealthy"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestPathID(t *testing.T) {
	r := gin.New()
	r.GET("/x/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for _, raw := range []string{"0", "-1", "abc", "99999999999"} {
		t.Run(raw, func(t *testing.T) {
			expectError(t, serve(r, http.MethodGet, "/x/"+raw, nil), http.StatusBadRequest, 400, "invalid id")
		})
	}
	if w := serve(r, http.MethodGet, "/x/12", nil); w.Body.String() != `{"id":12}` {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestManagerViewsAreSelfOnly(t *testing.T) {
	db := testutil.OpenDB(t, models.GuardOptions{})
	mgr := seedUser(t, db, "mira", models.RoleManager)
	other := seedUser(t, db, "otto", models.RoleManager)
	h := NewProjectHandler(services.NewProjectService(db))

	tests := []struct {
		name   string
		caller gin.HandlerFunc
		target uint
		want   int
	}{
		{"own view", asUser(mgr.ID, models.RoleManager), mgr.ID, http.StatusOK},
		{"other manager", asUser(mgr.ID, models.RoleManager), other.ID, http.StatusForbidden},
		{"admin sees all", asUser(999, models.RoleAdmin), other.ID, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(tt.caller)
			r.GET("/projects/manager/:id", h.ManagerProjects)
			r.GET("/projects/manager/:id/team-members", h.TeamMembers)

			for _, path := range []string{
				fmt.Sprintf("/projects/manager/%d", tt.target),
				fmt.Sprintf("/projects/manager/%d/team-members", tt.target),
			} {
				if got := serve(r, http.MethodGet, path, nil).Code; got != tt.want {
					t.Errorf("%s: expected status %d, got %d", path, tt.want, got)
				}
			}
		})
	}
}

func TestProjectMembers_AcceptsBothIDSpellings(t *testing.T) {
	db := testutil.OpenDB(t, models.GuardOptions{})
	mgr := seedUser(t, db, "mira", models.RoleManager)
	ann := seedUser(t, db, "ann", models.RoleMember)
	bob := seedUser(t, db, "bob", models.RoleMember)

	svc := services.NewProjectService(db)
	p := seedProject(t, svc, "Apollo", mgr.ID)

	h := NewProjectMemberHandler(svc)
	r := gin.New()
	r.GET("/projects/:id/members", h.List)
	r.POST("/projects/:id/members", h.Add)
	path := fmt.Sprintf("/projects/%d/members", p.ID)

	w := serve(r, http.MethodPost, path, gin.H{"userId": ann.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("userId: expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Member added to project") {
		t.Errorf("body = %s", w.Body.String())
	}

	w = serve(r, http.MethodPost, path, gin.H{"user_id": bob.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("user_id: expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodPost, path, gin.H{"userId": ann.ID})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate member: expected status 409, got %d", w.Code)
	}

	w = serve(r, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected status 200, got %d", w.Code)
	}
	var roster []services.RosterEntry
	decode(t, w, &roster)
	if len(roster) != 2 {
		t.Fatalf("roster = %d entries, expected 2", len(roster))
	}
	if roster[0].Name != "ann" || roster[1].Name != "bob" {
		t.Errorf("roster = %s, %s", roster[0].Name, roster[1].Name)
	}
}

func TestTaskHandlers_LockedProject(t *testing.T) {
	db := testutil.OpenDB(t, models.GuardOptions{GuardDelete: true})
	mgr := seedUser(t, db, "mira", models.RoleManager)

	projects := services.NewProjectService(db)
	p := seedProject(t, projects, "Apollo", mgr.ID)

	h := NewTaskHandler(services.NewTaskService(db))
	r := gin.New()
	r.POST("/api/tasks", h.Create)
	r.DELETE("/api/tasks/:id", h.Delete)

	w := serve(r, http.MethodPost, "/api/tasks", gin.H{
		"projectId": p.ID, "title": "T1", "assigneeId": mgr.ID, "dueDate": "2026-12-01",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		TaskID uint `json:"task_id"`
	}
	decode(t, w, &created)
	if created.TaskID == 0 {
		t.Fatal("created task has no id")
	}

	if _, err := projects.UpdateProjectStatus(p.ID, string(models.ProjectCompleted)); err != nil {
		t.Fatalf("complete project: %v", err)
	}

	w = serve(r, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", created.TaskID), nil)
	expectError(t, w, http.StatusBadRequest, response.CodeProjectLocked, models.MsgDeleteLocked)

	w = serve(r, http.MethodPost, "/api/tasks", gin.H{"projectId": p.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing fields: expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "required") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestBindJSON_Malformed(t *testing.T) {
	db := testutil.OpenDB(t, models.GuardOptions{})
	h := NewTaskHandler(services.NewTaskService(db))
	r := gin.New()
	r.POST("/api/tasks", h.Create)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	expectError(t, w, http.StatusBadRequest, 400, "invalid request body")
}
