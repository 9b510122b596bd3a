package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/internal/repository"
)

var (
	ErrExportNoRecords    = errors.New("no outpass records for this department")
	ErrExportGenerateFail = errors.New("excel generation failed")
)

// ExportService produces the department outpass register as an .xlsx
// download. The buffer is returned to the handler, which sets the response
// headers and streams it.
type ExportService interface {
	ExportDepartmentHistory(ctx context.Context, departmentID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	location *time.Location
	logger   *zap.Logger
}

// NewExportService creates the export service.
func NewExportService(repo *repository.Repository, location *time.Location, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, location: location, logger: logger}
}

func (s *exportService) ExportDepartmentHistory(ctx context.Context, departmentID string) (*bytes.Buffer, string, error) {
	department, err := s.repo.Department.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrDepartmentNotFound
		}
		s.logger.Error("load department failed", zap.Error(err))
		return nil, "", err
	}

	outpasses, err := s.repo.Outpass.ListByDepartment(ctx, departmentID)
	if err != nil {
		s.logger.Error("list department outpasses failed", zap.Error(err))
		return nil, "", err
	}
	if len(outpasses) == 0 {
		return nil, "", ErrExportNoRecords
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Outpass Register"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []struct {
		col   string
		width float64
	}{
		{"A", 14}, {"B", 20}, {"C", 12}, {"D", 14}, {"E", 30},
		{"F", 12}, {"G", 12}, {"H", 14}, {"I", 20}, {"J", 20}, {"K", 26},
	}
	for _, w := range widths {
		f.SetColWidth(sheetName, w.col, w.col, w.width)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s - Outpass Register", department.Name))
	f.MergeCell(sheetName, "A1", "K1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	headers := []string{
		"Date", "Student", "Roll No", "Class", "Reason",
		"Out", "Return", "Status", "Faculty Approver", "HOD Approver", "Rejection Reason",
	}
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, exportCell(i, row), h)
	}
	f.SetCellStyle(sheetName, exportCell(0, row), exportCell(len(headers)-1, row), headerStyle)

	row = 3
	for i := range outpasses {
		o := &outpasses[i]
		f.SetCellValue(sheetName, exportCell(0, row), o.CreatedAt.In(s.location).Format("02-01-2006"))
		if o.Student != nil {
			f.SetCellValue(sheetName, exportCell(1, row), o.Student.Name)
			f.SetCellValue(sheetName, exportCell(2, row), o.Student.RollNumber)
			if o.Student.Class != nil {
				f.SetCellValue(sheetName, exportCell(3, row), o.Student.Class.Name)
			}
		}
		f.SetCellValue(sheetName, exportCell(4, row), o.Reason)
		f.SetCellValue(sheetName, exportCell(5, row), o.DateFrom.In(s.location).Format("3:04 PM"))
		f.SetCellValue(sheetName, exportCell(6, row), o.DateTo.In(s.location).Format("3:04 PM"))
		f.SetCellValue(sheetName, exportCell(7, row), exportStatusLabel(o.Status))
		if o.FacultyApprover != nil {
			f.SetCellValue(sheetName, exportCell(8, row), o.FacultyApprover.Name)
		}
		if o.HodApprover != nil {
			f.SetCellValue(sheetName, exportCell(9, row), o.HodApprover.Name)
		}
		if o.RejectionReason != "" {
			f.SetCellValue(sheetName, exportCell(10, row), o.RejectionReason)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write excel failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("outpass_register_%s_%s.xlsx",
		department.Name, time.Now().In(s.location).Format("2006-01-02"))
	return buf, filename, nil
}

func exportCell(colIdx, row int) string {
	name, _ := excelize.ColumnNumberToName(colIdx + 1)
	return fmt.Sprintf("%s%d", name, row)
}

func exportStatusLabel(status string) string {
	switch status {
	case model.StatusPendingFaculty:
		return "Pending (Faculty)"
	case model.StatusPendingHod:
		return "Pending (HOD)"
	case model.StatusApproved:
		return "Approved"
	case model.StatusRejected:
		return "Rejected"
	case model.StatusCancelled:
		return "Cancelled"
	case model.StatusExited:
		return "Exited"
	}
	return status
}
