package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/dto"
	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/internal/repository"
)

var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrClassNotFound      = errors.New("class not found")
	ErrEmptyCalendar      = errors.New("calendar contains no usable events")
)

// AdminService provisioning of departments, classes, staff, students and
// timetables. Everything here is admin-only.
type AdminService interface {
	CreateDepartment(ctx context.Context, req *dto.CreateDepartmentRequest) (*model.Department, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)
	DeleteDepartment(ctx context.Context, id string) error

	CreateClass(ctx context.Context, req *dto.CreateClassRequest) (*model.Class, error)
	ListClasses(ctx context.Context) ([]model.Class, error)
	SetClassMentors(ctx context.Context, classID string, req *dto.SetMentorsRequest) error

	CreateEmployee(ctx context.Context, req *dto.CreateEmployeeRequest) (*model.Employee, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)

	CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)

	CreateTimetableSlot(ctx context.Context, req *dto.CreateTimetableSlotRequest) (*model.TimetableSlot, error)
	ListTimetable(ctx context.Context, employeeID string) ([]model.TimetableSlot, error)
	// ImportTimetable replaces an employee's slots from an ICS calendar,
	// supplied inline or fetched from a URL. Returns the number of slots
	// imported.
	ImportTimetable(ctx context.Context, req *dto.ImportTimetableRequest) (int, error)
}

type adminService struct {
	repo     *repository.Repository
	location *time.Location
	http     *http.Client
	logger   *zap.Logger
}

// NewAdminService creates the provisioning service.
func NewAdminService(repo *repository.Repository, location *time.Location, logger *zap.Logger) AdminService {
	return &adminService{
		repo:     repo,
		location: location,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// ── departments ──

func (s *adminService) CreateDepartment(ctx context.Context, req *dto.CreateDepartmentRequest) (*model.Department, error) {
	department := &model.Department{Name: req.Name}
	if req.HodID != "" {
		department.HodID = &req.HodID
	}
	if err := s.repo.Department.Create(ctx, department); err != nil {
		return nil, fmt.Errorf("create department: %w", err)
	}
	return department, nil
}

func (s *adminService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	return s.repo.Department.List(ctx)
}

func (s *adminService) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := s.repo.Department.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return err
	}
	return s.repo.Department.Delete(ctx, id)
}

// ── classes ──

func (s *adminService) CreateClass(ctx context.Context, req *dto.CreateClassRequest) (*model.Class, error) {
	if _, err := s.repo.Department.GetByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}

	class := &model.Class{
		Name:         req.Name,
		Year:         req.Year,
		DepartmentID: req.DepartmentID,
	}
	if err := s.repo.Class.Create(ctx, class); err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}
	if len(req.MentorIDs) > 0 {
		if err := s.repo.Class.SetMentors(ctx, class.ClassID, req.MentorIDs); err != nil {
			return nil, fmt.Errorf("assign mentors: %w", err)
		}
	}
	return s.repo.Class.GetByID(ctx, class.ClassID)
}

func (s *adminService) ListClasses(ctx context.Context) ([]model.Class, error) {
	return s.repo.Class.List(ctx)
}

func (s *adminService) SetClassMentors(ctx context.Context, classID string, req *dto.SetMentorsRequest) error {
	if _, err := s.repo.Class.GetByID(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}
	return s.repo.Class.SetMentors(ctx, classID, req.MentorIDs)
}

// ── staff ──

func (s *adminService) CreateEmployee(ctx context.Context, req *dto.CreateEmployeeRequest) (*model.Employee, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	employee := &model.Employee{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		EmployeeCode: req.EmployeeCode,
		Phone:        req.Phone,
		DepartmentID: req.DepartmentID,
		Role:         req.Role,
	}
	if err := s.repo.Employee.Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return employee, nil
}

func (s *adminService) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	return s.repo.Employee.List(ctx)
}

// ── students ──

func (s *adminService) CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*model.Student, error) {
	if _, err := s.repo.Class.GetByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	attendance := req.AttendancePercentage
	if attendance == 0 {
		attendance = 100
	}
	student := &model.Student{
		Name:                 req.Name,
		Email:                req.Email,
		PasswordHash:         string(hash),
		RollNumber:           req.RollNumber,
		Phone:                req.Phone,
		ParentName:           req.ParentName,
		PrimaryParentPhone:   req.PrimaryParentPhone,
		SecondaryParentPhone: req.SecondaryParentPhone,
		ClassID:              req.ClassID,
		AttendancePercentage: attendance,
	}
	if err := s.repo.Student.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return student, nil
}

func (s *adminService) ListStudents(ctx context.Context) ([]model.Student, error) {
	return s.repo.Student.List(ctx)
}

// ── timetable ──

func (s *adminService) CreateTimetableSlot(ctx context.Context, req *dto.CreateTimetableSlotRequest) (*model.TimetableSlot, error) {
	if err := validateSlotTimes(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	slot := &model.TimetableSlot{
		EmployeeID: req.EmployeeID,
		ClassID:    req.ClassID,
		DayOfWeek:  req.DayOfWeek,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if err := s.repo.Timetable.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return slot, nil
}

func (s *adminService) ListTimetable(ctx context.Context, employeeID string) ([]model.TimetableSlot, error) {
	return s.repo.Timetable.ListByEmployee(ctx, employeeID)
}

func (s *adminService) ImportTimetable(ctx context.Context, req *dto.ImportTimetableRequest) (int, error) {
	content := req.ICSContent
	if content == "" && req.ICSURL != "" {
		fetched, err := s.fetchCalendar(ctx, req.ICSURL)
		if err != nil {
			return 0, err
		}
		content = fetched
	}
	if content == "" {
		return 0, ErrEmptyCalendar
	}

	cal, err := ics.ParseCalendar(strings.NewReader(content))
	if err != nil {
		return 0, fmt.Errorf("parse calendar: %w", err)
	}

	// Each event becomes a weekly slot on its weekday. Recurrence rules are
	// not expanded; a weekly timetable exported as one event per weekday
	// round-trips exactly.
	slots := make([]model.TimetableSlot, 0, len(cal.Events()))
	for _, event := range cal.Events() {
		start, err := event.GetStartAt()
		if err != nil {
			continue
		}
		end, err := event.GetEndAt()
		if err != nil {
			continue
		}
		localStart := start.In(s.location)
		localEnd := end.In(s.location)
		if !localEnd.After(localStart) {
			continue
		}
		slots = append(slots, model.TimetableSlot{
			EmployeeID: req.EmployeeID,
			ClassID:    req.ClassID,
			DayOfWeek:  int(localStart.Weekday()),
			StartTime:  localStart.Format("15:04"),
			EndTime:    localEnd.Format("15:04"),
		})
	}
	if len(slots) == 0 {
		return 0, ErrEmptyCalendar
	}

	// Import replaces: the calendar is the source of truth for this
	// employee's availability.
	if err := s.repo.Timetable.DeleteByEmployee(ctx, req.EmployeeID); err != nil {
		return 0, fmt.Errorf("clear existing slots: %w", err)
	}
	if err := s.repo.Timetable.BatchCreate(ctx, slots); err != nil {
		return 0, fmt.Errorf("store slots: %w", err)
	}

	s.logger.Info("timetable imported",
		zap.String("employee_id", req.EmployeeID),
		zap.Int("slots", len(slots)))
	return len(slots), nil
}

func (s *adminService) fetchCalendar(ctx context.Context, url string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build calendar request: %w", err)
	}
	resp, err := s.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("fetch calendar: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch calendar: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read calendar: %w", err)
	}
	return string(body), nil
}

func validateSlotTimes(start, end string) error {
	s, err := parseClock(start)
	if err != nil {
		return fmt.Errorf("invalid start_time: %w", err)
	}
	e, err := parseClock(end)
	if err != nil {
		return fmt.Errorf("invalid end_time: %w", err)
	}
	if e <= s {
		return fmt.Errorf("end_time must be after start_time")
	}
	return nil
}
