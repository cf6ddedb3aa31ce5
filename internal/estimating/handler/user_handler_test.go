package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/apopovich85/Est/internal/estimating/testutil"
	"github.com/apopovich85/Est/internal/middleware"
)

func setupUserTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, testutil.JWTSecret, 24*time.Hour)
	handlers := NewHandlers(services)

	r := testutil.SetupRouter()
	r.POST("/api/v1/auth/register", handlers.User.Register)
	r.POST("/api/v1/auth/login", handlers.User.Login)

	api := testutil.AuthGroup(r, "/api/v1")
	{
		api.GET("/users/me", handlers.User.Me)
		api.PUT("/users/me", handlers.User.UpdateMe)
		api.GET("/users", middleware.RequireRole("admin"), handlers.User.List)
	}

	return &testutil.TestEnv{DB: db, Router: r, T: t}
}

func registerTestUser(t *testing.T, env *testutil.TestEnv, username string) {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/auth/register", map[string]interface{}{
		"username":  username,
		"email":     username + "@example.com",
		"full_name": "Test Estimator",
		"password":  "correct-horse-battery",
		"role":      "estimator",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 on register, got %d: %s", w.Code, w.Body.String())
	}
}

func loginTestUser(t *testing.T, env *testutil.TestEnv, username, password string) string {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/auth/login", map[string]interface{}{
		"username": username,
		"password": password,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on login, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("Login response carries no token: %s", w.Body.String())
	}
	return token
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := setupUserTest(t)
	registerTestUser(t, env, "jdoe")
	token := loginTestUser(t, env, "jdoe", "correct-horse-battery")

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/users/me", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Issued token must pass the auth middleware, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["username"] != "jdoe" {
		t.Errorf("Expected username jdoe, got %v", data["username"])
	}
	if _, leaked := data["password_hash"]; leaked {
		t.Errorf("Password hash must not be serialized")
	}
}

func TestLoginWrongPasswordReturns401(t *testing.T) {
	env := setupUserTest(t)
	registerTestUser(t, env, "jdoe")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/auth/login", map[string]interface{}{
		"username": "jdoe",
		"password": "wrong-password",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40100 {
		t.Errorf("Expected code 40100, got %v", resp["code"])
	}
}

func TestRegisterDuplicateUsernameConflict(t *testing.T) {
	env := setupUserTest(t)
	registerTestUser(t, env, "jdoe")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/auth/register", map[string]interface{}{
		"username":  "jdoe",
		"email":     "other@example.com",
		"full_name": "Other",
		"password":  "correct-horse-battery",
	}, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUserListRequiresAdminRole(t *testing.T) {
	env := setupUserTest(t)
	registerTestUser(t, env, "jdoe")
	estimatorToken := loginTestUser(t, env, "jdoe", "correct-horse-battery")

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/users", nil, estimatorToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for estimator, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/users", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	items, _ := data["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("Expected 1 user listed, got %d", len(items))
	}
}
