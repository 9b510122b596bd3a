package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visweshnarni/qptestbackend/internal/dto"
	"github.com/visweshnarni/qptestbackend/internal/service"
	"github.com/visweshnarni/qptestbackend/pkg/response"
)

// AuthHandler authentication endpoints.
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates the AuthHandler.
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// StudentLogin student login.
// POST /api/v1/auth/student/login
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.authSvc.StudentLogin(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, 11001, "invalid email or password")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// EmployeeLogin staff login (faculty, HOD, security).
// POST /api/v1/auth/employee/login
func (h *AuthHandler) EmployeeLogin(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.authSvc.EmployeeLogin(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, 11001, "invalid email or password")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Logout revokes the presented access token.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp, ok := tokenIdentity(c)
	if !ok {
		response.Unauthorized(c, 10002, "not authenticated")
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
