package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/visweshnarni/qptestbackend/internal/service"
	"github.com/visweshnarni/qptestbackend/pkg/response"
)

// StudentHandler student self-service endpoints.
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler creates the StudentHandler.
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// Profile returns the student's own profile.
// GET /api/v1/students/me
func (h *StudentHandler) Profile(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.studentSvc.Profile(c.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.NotFound(c, 12101, "student not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// ApplyDetails pre-fills the application form.
// GET /api/v1/students/me/apply-details
func (h *StudentHandler) ApplyDetails(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.studentSvc.ApplyDetails(c.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.NotFound(c, 12101, "student not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
