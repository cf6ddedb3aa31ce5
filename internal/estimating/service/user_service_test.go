package service

import (
	"context"
	"errors"
	"testing"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/testutil"
	"github.com/golang-jwt/jwt/v5"
)

func TestRegisterAndLoginIssuesValidToken(t *testing.T) {
	_, _, svc := setupAssemblyTest(t)
	ctx := context.Background()

	user, err := svc.User.Register(ctx, &RegisterInput{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		FullName: "Jane Doe",
		Password: "correct-horse-battery",
		Role:     "estimator",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct-horse-battery" {
		t.Errorf("Password must be stored hashed, got %q", user.PasswordHash)
	}

	token, loggedIn, err := svc.User.Login(ctx, "jdoe", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, loggedIn.ID)
	}

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testutil.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("Issued token must verify against the configured secret: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("Unexpected claims type %T", parsed.Claims)
	}
	if claims["uid"] != user.ID {
		t.Errorf("Expected uid claim %s, got %v", user.ID, claims["uid"])
	}
	roles, _ := claims["roles"].([]interface{})
	if len(roles) != 1 || roles[0] != "estimator" {
		t.Errorf("Expected roles [estimator], got %v", claims["roles"])
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	_, _, svc := setupAssemblyTest(t)
	ctx := context.Background()

	if _, err := svc.User.Register(ctx, &RegisterInput{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		FullName: "Jane Doe",
		Password: "correct-horse-battery",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.User.Login(ctx, "jdoe", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.User.Login(ctx, "nobody", "correct-horse-battery"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	db, _, svc := setupAssemblyTest(t)
	ctx := context.Background()

	user, err := svc.User.Register(ctx, &RegisterInput{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		FullName: "Jane Doe",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := db.Model(&entity.User{}).Where("id = ?", user.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if _, _, err := svc.User.Login(ctx, "jdoe", "correct-horse-battery"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	_, _, svc := setupAssemblyTest(t)
	ctx := context.Background()

	input := &RegisterInput{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		FullName: "Jane Doe",
		Password: "correct-horse-battery",
	}
	if _, err := svc.User.Register(ctx, input); err != nil {
		t.Fatalf("Register: %v", err)
	}

	dup := *input
	dup.Email = "jdoe2@example.com"
	if _, err := svc.User.Register(ctx, &dup); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
}

func TestRegisterValidatesRoleAndPassword(t *testing.T) {
	_, _, svc := setupAssemblyTest(t)
	ctx := context.Background()

	if _, err := svc.User.Register(ctx, &RegisterInput{
		Username: "root",
		Email:    "root@example.com",
		FullName: "Root",
		Password: "correct-horse-battery",
		Role:     "admin",
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("Self-service admin registration must be refused, got %v", err)
	}

	if _, err := svc.User.Register(ctx, &RegisterInput{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		FullName: "Jane Doe",
		Password: "short",
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for short password, got %v", err)
	}
}
