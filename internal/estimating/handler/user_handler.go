package handler

import (
	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var input service.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.svc.Register(c.Request.Context(), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, user)
}

// Login POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	token, user, err := h.svc.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"token": token, "user": user})
}

// Me GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	userID := GetUserID(c)
	if userID == "" {
		Unauthorized(c, "no authenticated user")
		return
	}

	user, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, user)
}

// UpdateMe PUT /users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID := GetUserID(c)
	if userID == "" {
		Unauthorized(c, "no authenticated user")
		return
	}

	var input service.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), userID, &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, user)
}

// List GET /users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": users})
}
