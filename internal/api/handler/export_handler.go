package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/visweshnarni/qptestbackend/internal/service"
	"github.com/visweshnarni/qptestbackend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler spreadsheet export endpoints.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates the ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// DepartmentHistory downloads the department's outpass register. HODs are
// scoped to their own department by the token.
// GET /api/v1/export/outpasses
func (h *ExportHandler) DepartmentHistory(c *gin.Context) {
	departmentID, ok := MustGetDepartmentID(c)
	if !ok {
		return
	}
	if departmentID == "" {
		response.BadRequest(c, 16001, "no department in token")
		return
	}

	buf, filename, err := h.exportSvc.ExportDepartmentHistory(c.Request.Context(), departmentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDepartmentNotFound):
			response.NotFound(c, 16101, "department not found")
		case errors.Is(err, service.ErrExportNoRecords):
			response.NotFound(c, 16102, "no outpass records for this department")
		default:
			response.InternalError(c)
		}
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", xlsxContentType)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
