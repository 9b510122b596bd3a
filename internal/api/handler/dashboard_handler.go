package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/visweshnarni/qptestbackend/internal/service"
	"github.com/visweshnarni/qptestbackend/pkg/response"
)

// DashboardHandler approver dashboard endpoints.
type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

// NewDashboardHandler creates the DashboardHandler.
func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// Faculty returns the faculty dashboard.
// GET /api/v1/dashboard/faculty
func (h *DashboardHandler) Faculty(c *gin.Context) {
	facultyID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.dashboardSvc.FacultyDashboard(c.Request.Context(), facultyID)
	if err != nil {
		if errors.Is(err, service.ErrEmployeeNotFound) {
			response.NotFound(c, 14101, "employee not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Hod returns the HOD dashboard.
// GET /api/v1/dashboard/hod
func (h *DashboardHandler) Hod(c *gin.Context) {
	hodID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.dashboardSvc.HodDashboard(c.Request.Context(), hodID)
	if err != nil {
		if errors.Is(err, service.ErrEmployeeNotFound) {
			response.NotFound(c, 14101, "employee not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
