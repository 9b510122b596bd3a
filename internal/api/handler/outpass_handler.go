package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visweshnarni/qptestbackend/internal/dto"
	"github.com/visweshnarni/qptestbackend/internal/service"
	"github.com/visweshnarni/qptestbackend/pkg/apperrors"
	"github.com/visweshnarni/qptestbackend/pkg/response"
)

// maxDocumentBytes caps the supporting document size.
const maxDocumentBytes = 5 << 20

// OutpassHandler outpass workflow endpoints.
type OutpassHandler struct {
	outpassSvc service.OutpassService
}

// NewOutpassHandler creates the OutpassHandler.
func NewOutpassHandler(outpassSvc service.OutpassService) *OutpassHandler {
	return &OutpassHandler{outpassSvc: outpassSvc}
}

// Apply submits a new outpass application. Accepts JSON or multipart form;
// the optional supporting document travels as the "document" file part.
// POST /api/v1/outpasses
func (h *OutpassHandler) Apply(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ApplyOutpassRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 13001, "invalid request payload")
		return
	}

	var doc []byte
	var docName string
	if file, err := c.FormFile("document"); err == nil {
		if file.Size > maxDocumentBytes {
			response.BadRequest(c, 13002, "supporting document too large")
			return
		}
		f, err := file.Open()
		if err != nil {
			response.InternalError(c)
			return
		}
		defer f.Close()
		doc, err = io.ReadAll(f)
		if err != nil {
			response.InternalError(c)
			return
		}
		docName = file.Filename
	}

	result, err := h.outpassSvc.Apply(c.Request.Context(), studentID, &req, doc, docName)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, result)
}

// Mine lists the student's own outpasses, newest first.
// GET /api/v1/outpasses/mine
func (h *OutpassHandler) Mine(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.outpassSvc.Mine(c.Request.Context(), studentID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// Current returns the student's active outpass, if any.
// GET /api/v1/outpasses/current
func (h *OutpassHandler) Current(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.outpassSvc.Current(c.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrOutpassNotFound) {
			response.OK(c, nil)
			return
		}
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// Get returns one outpass.
// GET /api/v1/outpasses/:id
func (h *OutpassHandler) Get(c *gin.Context) {
	result, err := h.outpassSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// Cancel withdraws the student's own pending outpass.
// POST /api/v1/outpasses/:id/cancel
func (h *OutpassHandler) Cancel(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.outpassSvc.Cancel(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// Pending lists the passes awaiting the caller's decision.
// GET /api/v1/outpasses/pending
func (h *OutpassHandler) Pending(c *gin.Context) {
	employeeID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	departmentID, ok := MustGetDepartmentID(c)
	if !ok {
		return
	}

	result, err := h.outpassSvc.PendingFor(c.Request.Context(), role, employeeID, departmentID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// History lists the passes the caller has decided.
// GET /api/v1/outpasses/history
func (h *OutpassHandler) History(c *gin.Context) {
	employeeID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.outpassSvc.History(c.Request.Context(), employeeID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// FacultyDecide records a faculty decision on a pending_faculty pass.
// POST /api/v1/outpasses/:id/faculty-decision
func (h *OutpassHandler) FacultyDecide(c *gin.Context) {
	facultyID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "invalid request payload")
		return
	}

	result, err := h.outpassSvc.FacultyDecide(c.Request.Context(), facultyID, c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// HodDecide records an HOD decision on a pending_hod pass.
// POST /api/v1/outpasses/:id/hod-decision
func (h *OutpassHandler) HodDecide(c *gin.Context) {
	hodID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "invalid request payload")
		return
	}

	result, err := h.outpassSvc.HodDecide(c.Request.Context(), hodID, c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// VerifyExit stamps the student's exit at the gate.
// POST /api/v1/outpasses/:id/verify-exit
func (h *OutpassHandler) VerifyExit(c *gin.Context) {
	securityID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.outpassSvc.VerifyExit(c.Request.Context(), securityID, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// VerifyReturn stamps the student's return at the gate.
// POST /api/v1/outpasses/:id/verify-return
func (h *OutpassHandler) VerifyReturn(c *gin.Context) {
	securityID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.outpassSvc.VerifyReturn(c.Request.Context(), securityID, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *OutpassHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOutpassNotFound):
		response.NotFound(c, 13101, "outpass not found")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13102, "student not found")
	case errors.Is(err, service.ErrInvalidTimeWindow):
		response.BadRequest(c, 13103, "departure and return must fall on the same day, departure first")
	case errors.Is(err, service.ErrReturnAfterCutoff):
		response.BadRequest(c, 13104, "return time is past the day-end cutoff")
	case errors.Is(err, service.ErrActiveOutpassExists):
		response.Conflict(c, 13105, "an active outpass already exists")
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(c, 13106, "outpass belongs to another student")
	case errors.Is(err, service.ErrDocumentUpload):
		response.Error(c, http.StatusBadGateway, 13107, "supporting document upload failed")
	case errors.Is(err, service.ErrAlreadyReturned):
		response.Conflict(c, 13108, "return already verified")
	case errors.Is(err, apperrors.ErrStatusConflict):
		response.Conflict(c, 13109, "outpass is no longer in the expected status")
	default:
		response.InternalError(c)
	}
}
