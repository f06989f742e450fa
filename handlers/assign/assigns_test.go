package assign

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/ucmsdev/ucms-api/model"
	authutil "github.com/ucmsdev/ucms-api/utils/auth"
	"github.com/ucmsdev/ucms-api/utils/middleware"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	courses  []model.Course
	students []model.User
	admin    string
	student  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Course{}, &model.CourseContent{}, &model.CourseAssign{}, &model.Result{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	admin := model.User{Name: "Admin", Email: "admin@example.com", PasswordHash: "x", Role: model.RoleAdmin}
	s1 := model.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x", Role: model.RoleStudent}
	s2 := model.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "x", Role: model.RoleStudent}
	db.Create(&admin)
	db.Create(&s1)
	db.Create(&s2)

	c1 := model.Course{Name: "Algorithms", Code: "CS201", Status: 1}
	c2 := model.Course{Name: "Databases", Code: "CS301", Status: 1}
	db.Create(&c1)
	db.Create(&c2)

	jwtMgr := authutil.NewJWTManager(authutil.JWTConfig{
		Secret: "test-secret",
		Expiry: time.Hour,
		Issuer: "ucms-test",
	})
	adminToken, err := jwtMgr.GenerateAccessToken(admin.ID, admin.Email, string(admin.Role))
	if err != nil {
		t.Fatalf("admin token: %v", err)
	}
	studentToken, err := jwtMgr.GenerateAccessToken(s1.ID, s1.Email, string(s1.Role))
	if err != nil {
		t.Fatalf("student token: %v", err)
	}

	app := fiber.New()
	authMW := middleware.NewAuthMiddleware(jwtMgr, db)
	h := NewAssignHandler(db)
	app.Get("/assigns", authMW.RequireAdmin(), h.ListAssigns)
	app.Get("/assigns/options", authMW.RequireAdmin(), h.Options)
	app.Post("/assigns/store", authMW.RequireAdmin(), h.CreateAssign)
	app.Put("/assigns/update/:id", authMW.RequireAdmin(), h.UpdateAssign)
	app.Delete("/assigns/delete/:id", authMW.RequireAdmin(), h.DeleteAssign)

	return &testEnv{
		app:      app,
		db:       db,
		courses:  []model.Course{c1, c2},
		students: []model.User{s1, s2},
		admin:    adminToken,
		student:  studentToken,
	}
}

func (e *testEnv) do(t *testing.T, method, target, token string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	return resp
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func TestCreateAssign(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, "POST", "/assigns/store", e.admin, AssignRequest{
		CourseID: e.courses[0].ID,
		UserID:   e.students[0].ID,
		Date:     "2026-09-01",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var created AssignResponse
	decodeData(t, resp, &created)
	if created.Course.Code != "CS201" || created.User.Email != "alice@example.com" {
		t.Errorf("joined summaries = %+v", created)
	}
	if created.Date == nil {
		t.Error("expected date on response")
	}
}

func TestCreateAssignDuplicatePairConflicts(t *testing.T) {
	e := newTestEnv(t)

	req := AssignRequest{CourseID: e.courses[0].ID, UserID: e.students[0].ID}
	if resp := e.do(t, "POST", "/assigns/store", e.admin, req); resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("first create status = %d", resp.StatusCode)
	}

	resp := e.do(t, "POST", "/assigns/store", e.admin, req)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("duplicate create status = %d, want 409", resp.StatusCode)
	}

	var count int64
	e.db.Model(&model.CourseAssign{}).Count(&count)
	if count != 1 {
		t.Errorf("assign count = %d, want 1", count)
	}

	// Same student on a different course is fine
	resp = e.do(t, "POST", "/assigns/store", e.admin, AssignRequest{
		CourseID: e.courses[1].ID,
		UserID:   e.students[0].ID,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Errorf("different course status = %d, want 201", resp.StatusCode)
	}
}

func TestCreateAssignValidation(t *testing.T) {
	e := newTestEnv(t)

	// Missing user_id
	if resp := e.do(t, "POST", "/assigns/store", e.admin, AssignRequest{CourseID: 1}); resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("missing user_id status = %d, want 422", resp.StatusCode)
	}

	// References that do not exist
	if resp := e.do(t, "POST", "/assigns/store", e.admin, AssignRequest{CourseID: 999, UserID: 1}); resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("unknown course status = %d, want 422", resp.StatusCode)
	}

	// Malformed date
	if resp := e.do(t, "POST", "/assigns/store", e.admin, AssignRequest{CourseID: 1, UserID: 2, Date: "01-09-2026"}); resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("bad date status = %d, want 422", resp.StatusCode)
	}
}

func TestAssignRoutesForbiddenForStudent(t *testing.T) {
	e := newTestEnv(t)

	if resp := e.do(t, "GET", "/assigns", e.student, nil); resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("list status = %d, want 403", resp.StatusCode)
	}
	if resp := e.do(t, "GET", "/assigns/options", e.student, nil); resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("options status = %d, want 403", resp.StatusCode)
	}

	resp := e.do(t, "POST", "/assigns/store", e.student, AssignRequest{CourseID: 1, UserID: 2})
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("create status = %d, want 403", resp.StatusCode)
	}

	var count int64
	e.db.Model(&model.CourseAssign{}).Count(&count)
	if count != 0 {
		t.Errorf("assign count = %d, want 0 (no mutation on forbidden)", count)
	}
}

func TestUpdateAssignPairConflict(t *testing.T) {
	e := newTestEnv(t)

	a1 := model.CourseAssign{CourseID: e.courses[0].ID, UserID: e.students[0].ID}
	a2 := model.CourseAssign{CourseID: e.courses[1].ID, UserID: e.students[1].ID}
	e.db.Create(&a1)
	e.db.Create(&a2)

	// Moving a2 onto a1's pair conflicts
	resp := e.do(t, "PUT", "/assigns/update/2", e.admin, AssignRequest{
		CourseID: e.courses[0].ID,
		UserID:   e.students[0].ID,
	})
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("conflicting update status = %d, want 409", resp.StatusCode)
	}

	// Keeping its own pair succeeds
	resp = e.do(t, "PUT", "/assigns/update/2", e.admin, AssignRequest{
		CourseID: e.courses[1].ID,
		UserID:   e.students[1].ID,
		Date:     "2026-09-15",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("self update status = %d, want 200", resp.StatusCode)
	}
}

func TestListAssignsNewestFirst(t *testing.T) {
	e := newTestEnv(t)

	e.db.Create(&model.CourseAssign{CourseID: e.courses[0].ID, UserID: e.students[0].ID})
	e.db.Create(&model.CourseAssign{CourseID: e.courses[1].ID, UserID: e.students[1].ID})

	resp := e.do(t, "GET", "/assigns", e.admin, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var assigns []AssignResponse
	decodeData(t, resp, &assigns)
	if len(assigns) != 2 {
		t.Fatalf("assigns = %d, want 2", len(assigns))
	}
	if assigns[0].ID < assigns[1].ID {
		t.Errorf("expected newest first, got ids %d, %d", assigns[0].ID, assigns[1].ID)
	}
	if assigns[0].Course.Name == "" || assigns[0].User.Name == "" {
		t.Errorf("missing joined summaries: %+v", assigns[0])
	}
}

func TestAssignOptions(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, "GET", "/assigns/options", e.admin, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var opts struct {
		Courses  []model.CourseSummary `json:"courses"`
		Students []model.UserSummary   `json:"students"`
	}
	decodeData(t, resp, &opts)
	if len(opts.Courses) != 2 {
		t.Errorf("courses = %d, want 2", len(opts.Courses))
	}
	// The admin account is not an assignable student
	if len(opts.Students) != 2 {
		t.Errorf("students = %d, want 2", len(opts.Students))
	}
	for _, s := range opts.Students {
		if s.Email == "admin@example.com" {
			t.Error("admin listed among students")
		}
	}
}

func TestDeleteAssign(t *testing.T) {
	e := newTestEnv(t)

	e.db.Create(&model.CourseAssign{CourseID: e.courses[0].ID, UserID: e.students[0].ID})

	resp := e.do(t, "DELETE", "/assigns/delete/1", e.admin, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp = e.do(t, "DELETE", "/assigns/delete/1", e.admin, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}
