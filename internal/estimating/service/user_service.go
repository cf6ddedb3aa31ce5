package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages accounts and issues access tokens.
type UserService struct {
	users     *repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserService(users *repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UserService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// Register creates an account. Admin accounts are provisioned directly in the
// database, not through this endpoint.
func (s *UserService) Register(ctx context.Context, input *RegisterInput) (*entity.User, error) {
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	role := input.Role
	if role == "" {
		role = "viewer"
	}
	if role != "viewer" && role != "estimator" {
		return nil, fmt.Errorf("%w: role must be viewer or estimator", ErrValidation)
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: username %q is already taken", ErrConflict, username)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.New().String()[:32],
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		FullName:     input.FullName,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and returns a signed access token. Unknown
// usernames, wrong passwords and deactivated accounts all fail the same way.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *entity.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *UserService) issueToken(user *entity.User) (string, error) {
	perms := []string{}
	if user.Role == "admin" {
		perms = []string{"*"}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"uid":   user.ID,
		"name":  user.FullName,
		"email": user.Email,
		"roles": []string{user.Role},
		"perms": perms,
		"iss":   "est",
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
		"jti":   uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.users.FindByID(ctx, id)
}

// List returns the active accounts.
func (s *UserService) List(ctx context.Context) ([]entity.User, error) {
	return s.users.List(ctx)
}

type UpdateProfileInput struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, input *UpdateProfileInput) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
