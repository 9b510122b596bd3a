package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/internal/repository"
)

// TargetResolver computes which faculty must hear about a new outpass:
// the class mentors unconditionally, plus every other faculty member of the
// department who is not teaching during the requested window.
//
// The resolver never fails request handling. Any lookup error degrades to a
// smaller (possibly empty) target set with a logged warning.
type TargetResolver interface {
	ResolveTargets(ctx context.Context, student *model.Student, outpass *model.Outpass) []model.Employee
}

type targetResolver struct {
	repo     *repository.Repository
	location *time.Location
	logger   *zap.Logger
}

// NewTargetResolver creates a resolver working in the institution timezone.
func NewTargetResolver(repo *repository.Repository, location *time.Location, logger *zap.Logger) TargetResolver {
	return &targetResolver{repo: repo, location: location, logger: logger}
}

func (r *targetResolver) ResolveTargets(ctx context.Context, student *model.Student, outpass *model.Outpass) []model.Employee {
	// Timetable slots are local wall-clock strings, so the window must be
	// formatted in the institution timezone; comparing against UTC clock
	// values would shift every slot by the UTC offset.
	localFrom := outpass.DateFrom.In(r.location)
	dayOfWeek := int(localFrom.Weekday())
	outpassStart := localFrom.Format("15:04")
	outpassEnd := outpass.DateTo.In(r.location).Format("15:04")

	detail, err := r.repo.Student.GetByIDWithClass(ctx, student.StudentID)
	if err != nil {
		r.logger.Warn("target resolver: load student failed",
			zap.String("student_id", student.StudentID), zap.Error(err))
		return nil
	}
	if detail.Class == nil {
		r.logger.Warn("target resolver: student has no class",
			zap.String("student_id", student.StudentID))
		return nil
	}

	mentorIDs := make([]string, 0, len(detail.Class.Mentors))
	for _, m := range detail.Class.Mentors {
		mentorIDs = append(mentorIDs, m.EmployeeID)
	}
	departmentID := detail.Class.DepartmentID

	// Other faculty of the same department; mentors are excluded here and
	// added back unconditionally, busy or not.
	others, err := r.repo.Employee.ListByDepartmentAndRole(ctx, departmentID, model.RoleFaculty, mentorIDs)
	if err != nil {
		r.logger.Warn("target resolver: list department faculty failed",
			zap.String("department_id", departmentID), zap.Error(err))
		others = nil
	}

	otherIDs := make([]string, 0, len(others))
	for _, e := range others {
		otherIDs = append(otherIDs, e.EmployeeID)
	}

	busyIDs, err := r.repo.Timetable.ListBusyEmployeeIDs(ctx, otherIDs, dayOfWeek, outpassStart, outpassEnd)
	if err != nil {
		r.logger.Warn("target resolver: busy lookup failed", zap.Error(err))
		// On lookup failure treat everyone as free rather than silencing
		// the whole department.
		busyIDs = nil
	}
	busy := make(map[string]bool, len(busyIDs))
	for _, id := range busyIDs {
		busy[id] = true
	}

	finalIDs := make([]string, 0, len(mentorIDs)+len(otherIDs))
	seen := make(map[string]bool)
	for _, id := range mentorIDs {
		if !seen[id] {
			seen[id] = true
			finalIDs = append(finalIDs, id)
		}
	}
	for _, id := range otherIDs {
		if !busy[id] && !seen[id] {
			seen[id] = true
			finalIDs = append(finalIDs, id)
		}
	}

	targets, err := r.repo.Employee.ListByIDs(ctx, finalIDs)
	if err != nil {
		r.logger.Warn("target resolver: load targets failed", zap.Error(err))
		return nil
	}

	// Fallback: a class with no mentors and a fully busy department would
	// leave the request invisible. Escalate straight to the HOD instead of
	// notifying nobody.
	if len(targets) == 0 {
		hods, err := r.repo.Employee.ListByDepartmentAndRole(ctx, departmentID, model.RoleHod, nil)
		if err != nil || len(hods) == 0 {
			r.logger.Warn("target resolver: no targets and no HOD fallback",
				zap.String("department_id", departmentID),
				zap.String("outpass_window", outpassStart+"-"+outpassEnd))
			return nil
		}
		r.logger.Warn("target resolver: no eligible faculty, falling back to HOD",
			zap.String("department_id", departmentID))
		return hods
	}

	return targets
}
