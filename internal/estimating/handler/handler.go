package handler

import (
	"errors"
	"strconv"

	"github.com/apopovich85/Est/internal/estimating/service"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the HTTP handlers.
type Handlers struct {
	User             *UserHandler
	Part             *PartHandler
	StandardAssembly *StandardAssemblyHandler
	Project          *ProjectHandler
	Estimate         *EstimateHandler
	Motor            *MotorHandler
	LaborRate        *LaborRateHandler
}

func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		User:             NewUserHandler(svc.User),
		Part:             NewPartHandler(svc.Part),
		StandardAssembly: NewStandardAssemblyHandler(svc.StandardAssembly),
		Project:          NewProjectHandler(svc.Project),
		Estimate:         NewEstimateHandler(svc.Estimate),
		Motor:            NewMotorHandler(svc.Motor),
		LaborRate:        NewLaborRateHandler(svc.LaborRate),
	}
}

// Response is the common response envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps paginated list payloads.
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError maps service sentinels onto response codes.
func ServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrVersionNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID pulls the authenticated user id from the request context.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination reads the page/page_size query parameters.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
