package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/dto"
	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/internal/repository"
)

var ErrEmployeeNotFound = errors.New("employee not found")

const recentPendingLimit = 5

// DashboardService aggregate views for approvers. Counts are read fresh on
// every request; none of these figures are cached.
type DashboardService interface {
	FacultyDashboard(ctx context.Context, facultyID string) (*dto.FacultyDashboardResponse, error)
	HodDashboard(ctx context.Context, hodID string) (*dto.HodDashboardResponse, error)
}

type dashboardService struct {
	repo                   *repository.Repository
	outpass                OutpassService
	location               *time.Location
	lowAttendanceThreshold float64
	logger                 *zap.Logger
}

// NewDashboardService creates the dashboard aggregator.
func NewDashboardService(
	repo *repository.Repository,
	outpass OutpassService,
	location *time.Location,
	lowAttendanceThreshold float64,
	logger *zap.Logger,
) DashboardService {
	return &dashboardService{
		repo:                   repo,
		outpass:                outpass,
		location:               location,
		lowAttendanceThreshold: lowAttendanceThreshold,
		logger:                 logger,
	}
}

func (s *dashboardService) FacultyDashboard(ctx context.Context, facultyID string) (*dto.FacultyDashboardResponse, error) {
	faculty, err := s.repo.Employee.GetByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("load faculty: %w", err)
	}

	details := dto.FacultyDetails{
		Name:  faculty.Name,
		Email: faculty.Email,
		Phone: faculty.Phone,
		Role:  faculty.Role,
	}
	if faculty.Department != nil {
		details.Department = faculty.Department.Name
	}

	// Mentor status comes from the mentor assignment table, never from the
	// timetable: teaching a class's slots does not make someone its mentor.
	mentorClass, err := s.repo.Class.GetMentorClass(ctx, facultyID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load mentor class: %w", err)
	}
	if mentorClass != nil {
		details.IsMentor = true
		details.MentorClass = mentorClass.Name
		if n, err := s.repo.Student.CountByClass(ctx, mentorClass.ClassID); err == nil {
			details.ClassStudentCount = n
		}
	}
	if n, err := s.repo.Student.CountByDepartment(ctx, faculty.DepartmentID); err == nil {
		details.DeptStudentCount = n
	}

	stats := dto.FacultyStats{}
	if n, err := s.repo.Outpass.CountNotifiedPending(ctx, facultyID); err == nil {
		stats.PendingRequests = n
	}
	if n, err := s.repo.Outpass.CountDecidedByFaculty(ctx, facultyID, model.StatusPendingHod); err == nil {
		stats.ApprovedRequests = n
	}
	// A faculty approval later decided by the HOD still counts as approved by
	// this faculty member.
	if n, err := s.repo.Outpass.CountDecidedByFaculty(ctx, facultyID, model.StatusApproved); err == nil {
		stats.ApprovedRequests += n
	}
	if n, err := s.repo.Outpass.CountDecidedByFaculty(ctx, facultyID, model.StatusExited); err == nil {
		stats.ApprovedRequests += n
	}
	if n, err := s.repo.Outpass.CountDecidedByFaculty(ctx, facultyID, model.StatusRejected); err == nil {
		stats.RejectedRequests = n
	}

	recent, err := s.outpass.PendingFor(ctx, model.RoleFaculty, facultyID, faculty.DepartmentID)
	if err != nil {
		return nil, err
	}
	if len(recent) > recentPendingLimit {
		recent = recent[:recentPendingLimit]
	}

	alerts := s.urgentAlerts(ctx, faculty.DepartmentID, []string{model.StatusPendingFaculty})
	alerts = append(alerts, s.lowAttendanceAlerts(recent)...)

	return &dto.FacultyDashboardResponse{
		FacultyDetails: details,
		Stats:          stats,
		RecentPending:  recent,
		UrgentAlerts:   alerts,
	}, nil
}

func (s *dashboardService) HodDashboard(ctx context.Context, hodID string) (*dto.HodDashboardResponse, error) {
	hod, err := s.repo.Employee.GetByID(ctx, hodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("load hod: %w", err)
	}

	details := dto.HodDetails{
		Name:  hod.Name,
		Email: hod.Email,
		Role:  hod.Role,
	}
	if hod.Department != nil {
		details.Department = hod.Department.Name
	}
	if n, err := s.repo.Employee.CountByDepartmentAndRole(ctx, hod.DepartmentID, model.RoleFaculty); err == nil {
		details.TotalFaculty = n
	}
	if n, err := s.repo.Student.CountByDepartment(ctx, hod.DepartmentID); err == nil {
		details.TotalStudents = n
	}

	stats := dto.HodStats{}
	if n, err := s.repo.Outpass.CountByStatusAndDepartment(ctx, model.StatusPendingHod, hod.DepartmentID); err == nil {
		stats.PendingApprovals = n
	}
	startOfDay := s.startOfToday()
	if n, err := s.repo.Outpass.CountDecidedByHodSince(ctx, hodID, model.StatusApproved, startOfDay); err == nil {
		stats.ApprovedToday = n
	}
	if n, err := s.repo.Outpass.CountDecidedByHodSince(ctx, hodID, model.StatusExited, startOfDay); err == nil {
		stats.ApprovedToday += n
	}
	if n, err := s.repo.Outpass.CountDecidedByHodSince(ctx, hodID, model.StatusRejected, startOfDay); err == nil {
		stats.RejectedToday = n
	}

	recent, err := s.outpass.PendingFor(ctx, model.RoleHod, hodID, hod.DepartmentID)
	if err != nil {
		return nil, err
	}
	if len(recent) > recentPendingLimit {
		recent = recent[:recentPendingLimit]
	}

	alerts := s.urgentAlerts(ctx, hod.DepartmentID,
		[]string{model.StatusPendingFaculty, model.StatusPendingHod})
	alerts = append(alerts, s.lowAttendanceAlerts(recent)...)

	return &dto.HodDashboardResponse{
		HodDetails:    details,
		Stats:         stats,
		RecentPending: recent,
		UrgentAlerts:  alerts,
	}, nil
}

// urgentAlerts surfaces emergency-category requests still in flight.
func (s *dashboardService) urgentAlerts(ctx context.Context, departmentID string, statuses []string) []dto.UrgentAlert {
	outpasses, err := s.repo.Outpass.ListEmergencyPending(ctx, statuses, departmentID, recentPendingLimit)
	if err != nil {
		s.logger.Warn("urgent alerts lookup failed",
			zap.String("department_id", departmentID), zap.Error(err))
		return nil
	}

	alerts := make([]dto.UrgentAlert, 0, len(outpasses))
	for _, o := range outpasses {
		alert := dto.UrgentAlert{
			RequestID: o.OutpassID,
			CreatedAt: o.CreatedAt.In(s.location).Format("02 Jan 2006 3:04 PM"),
		}
		if o.Student != nil {
			alert.Message = fmt.Sprintf("Emergency outpass request from %s", o.Student.Name)
			if o.Student.Class != nil {
				alert.Class = o.Student.Class.Name
			}
		} else {
			alert.Message = "Emergency outpass request"
		}
		alerts = append(alerts, alert)
	}
	return alerts
}

// lowAttendanceAlerts flags pending requests whose attendance snapshot fell
// below the configured threshold at application time.
func (s *dashboardService) lowAttendanceAlerts(pending []dto.OutpassResponse) []dto.UrgentAlert {
	var alerts []dto.UrgentAlert
	for _, p := range pending {
		if p.AttendanceAtApply >= s.lowAttendanceThreshold {
			continue
		}
		alert := dto.UrgentAlert{
			RequestID: p.ID,
			CreatedAt: p.CreatedAt.In(s.location).Format("02 Jan 2006 3:04 PM"),
		}
		if p.Student != nil {
			alert.Message = fmt.Sprintf("%s requested an outpass with %.1f%% attendance",
				p.Student.Name, p.AttendanceAtApply)
			alert.Class = p.Student.Class
		} else {
			alert.Message = fmt.Sprintf("Outpass requested with %.1f%% attendance", p.AttendanceAtApply)
		}
		alerts = append(alerts, alert)
	}
	return alerts
}

func (s *dashboardService) startOfToday() time.Time {
	now := time.Now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}
