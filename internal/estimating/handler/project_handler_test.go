package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/apopovich85/Est/internal/estimating/testutil"
)

func setupProjectTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, testutil.JWTSecret, 24*time.Hour)
	handlers := NewHandlers(services)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	{
		api.GET("/projects", handlers.Project.List)
		api.POST("/projects", handlers.Project.Create)
		api.GET("/projects/:id", handlers.Project.Get)
		api.PUT("/projects/:id", handlers.Project.Update)
		api.DELETE("/projects/:id", handlers.Project.Delete)
		api.GET("/projects/:id/totals", handlers.Project.Totals)
	}

	return &testutil.TestEnv{DB: db, Router: r, T: t}
}

func TestCreateAndGetProject(t *testing.T) {
	env := setupProjectTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/projects", map[string]interface{}{
		"project_name": "Water Treatment Upgrade",
		"client_name":  "City of Springfield",
		"description":  "MCC replacement",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["project_name"] != "Water Treatment Upgrade" {
		t.Errorf("Expected project name echoed back, got %v", data["project_name"])
	}
	if data["status"] != "draft" {
		t.Errorf("Expected draft status, got %v", data["status"])
	}
	id := data["id"].(string)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/projects/"+id, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	if resp["code"].(float64) != 0 {
		t.Errorf("Expected code 0, got %v", resp["code"])
	}
}

func TestCreateProjectValidatesInput(t *testing.T) {
	env := setupProjectTest(t)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/projects", map[string]interface{}{
		"description": "missing required fields",
	}, testutil.DefaultTestToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40000 {
		t.Errorf("Expected code 40000, got %v", resp["code"])
	}
}

func TestGetProjectNotFound(t *testing.T) {
	env := setupProjectTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/projects/nonexistent", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40400 {
		t.Errorf("Expected code 40400, got %v", resp["code"])
	}
}

func TestProjectRoutesRequireAuth(t *testing.T) {
	env := setupProjectTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/projects", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without a token, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/projects", nil, "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 with a bad token, got %d", w.Code)
	}
}

func TestListProjectsPaginates(t *testing.T) {
	env := setupProjectTest(t)
	token := testutil.DefaultTestToken()

	for i := 0; i < 3; i++ {
		testutil.SeedProject(t, env.DB, "Paged Project")
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/projects?page=1&page_size=2", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("Expected 2 items on the first page, got %d", len(items))
	}
	pagination := data["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 3 {
		t.Errorf("Expected total 3, got %v", pagination["total"])
	}
	if pagination["total_pages"].(float64) != 2 {
		t.Errorf("Expected 2 pages, got %v", pagination["total_pages"])
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	env := setupProjectTest(t)
	token := testutil.DefaultTestToken()

	project := testutil.SeedProject(t, env.DB, "Delete Me")
	testutil.SeedEstimate(t, env.DB, project.ID, "EST-900")

	w := testutil.DoRequest(env.Router, "DELETE", "/api/v1/projects/"+project.ID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/projects/"+project.ID, nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after deletion, got %d", w.Code)
	}
}
