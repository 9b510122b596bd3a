package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/visweshnarni/qptestbackend/internal/dto"
	"github.com/visweshnarni/qptestbackend/internal/service"
	"github.com/visweshnarni/qptestbackend/pkg/response"
)

// AdminHandler provisioning endpoints.
type AdminHandler struct {
	adminSvc service.AdminService
}

// NewAdminHandler creates the AdminHandler.
func NewAdminHandler(adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// ── departments ──

// CreateDepartment POST /api/v1/admin/departments
func (h *AdminHandler) CreateDepartment(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "invalid request payload")
		return
	}
	result, err := h.adminSvc.CreateDepartment(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, result)
}

// ListDepartments GET /api/v1/admin/departments
func (h *AdminHandler) ListDepartments(c *gin.Context) {
	result, err := h.adminSvc.ListDepartments(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// DeleteDepartment DELETE /api/v1/admin/departments/:id
func (h *AdminHandler) DeleteDepartment(c *gin.Context) {
	if err := h.adminSvc.DeleteDepartment(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── classes ──

// CreateClass POST /api/v1/admin/classes
func (h *AdminHandler) CreateClass(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "invalid request payload")
		return
	}
	result, err := h.adminSvc.CreateClass(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, result)
}

// ListClasses GET /api/v1/admin/classes
func (h *AdminHandler) ListClasses(c *gin.Context) {
	result, err := h.adminSvc.ListClasses(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// SetClassMentors PUT /api/v1/admin/classes/:id/mentors
func (h *AdminHandler) SetClassMentors(c *gin.Context) {
	var req dto.SetMentorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "invalid request payload")
		return
	}
	if err := h.adminSvc.SetClassMentors(c.Request.Context(), c.Param("id"), &req); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── staff and students ──

// CreateEmployee POST /api/v1/admin/employees
func (h *AdminHandler) CreateEmployee(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "invalid request payload")
		return
	}
	result, err := h.adminSvc.CreateEmployee(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, result)
}

// ListEmployees GET /api/v1/admin/employees
func (h *AdminHandler) ListEmployees(c *gin.Context) {
	result, err := h.adminSvc.ListEmployees(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// CreateStudent POST /api/v1/admin/students
func (h *AdminHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "invalid request payload")
		return
	}
	result, err := h.adminSvc.CreateStudent(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, result)
}

// ListStudents GET /api/v1/admin/students
func (h *AdminHandler) ListStudents(c *gin.Context) {
	result, err := h.adminSvc.ListStudents(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// ── timetable ──

// CreateTimetableSlot POST /api/v1/admin/timetable
func (h *AdminHandler) CreateTimetableSlot(c *gin.Context) {
	var req dto.CreateTimetableSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "invalid request payload")
		return
	}
	result, err := h.adminSvc.CreateTimetableSlot(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, result)
}

// ListTimetable GET /api/v1/admin/timetable/:employee_id
func (h *AdminHandler) ListTimetable(c *gin.Context) {
	result, err := h.adminSvc.ListTimetable(c.Request.Context(), c.Param("employee_id"))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// ImportTimetable POST /api/v1/admin/timetable/import
func (h *AdminHandler) ImportTimetable(c *gin.Context) {
	var req dto.ImportTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "invalid request payload")
		return
	}
	count, err := h.adminSvc.ImportTimetable(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, gin.H{"imported_slots": count})
}

func (h *AdminHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 15101, "department not found")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 15102, "class not found")
	case errors.Is(err, service.ErrEmptyCalendar):
		response.BadRequest(c, 15103, "calendar contains no usable events")
	default:
		response.InternalError(c)
	}
}
