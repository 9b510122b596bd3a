package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/dto"
	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/internal/repository"
	"github.com/visweshnarni/qptestbackend/pkg/apperrors"
	"github.com/visweshnarni/qptestbackend/pkg/cloudinary"
)

// Service-level sentinel errors, mapped to HTTP statuses in the handlers.
var (
	ErrOutpassNotFound     = errors.New("outpass not found")
	ErrStudentNotFound     = errors.New("student not found")
	ErrInvalidTimeWindow   = errors.New("departure and return must fall on the same day, departure first")
	ErrReturnAfterCutoff   = errors.New("return time is past the day-end cutoff")
	ErrActiveOutpassExists = errors.New("an active outpass already exists")
	ErrNotOwner            = errors.New("outpass belongs to another student")
	ErrDocumentUpload      = errors.New("supporting document upload failed")
	ErrAlreadyReturned     = errors.New("return already verified")
)

// OutpassService is the approval workflow state machine. Every transition is
// enforced by the repository's guarded UPDATE, so concurrent decisions on one
// pass resolve to exactly one winner; this layer decides which transition to
// attempt and what side effects a successful one triggers.
//
// Side effects (notifications, the delayed recheck) are always best-effort:
// they run after the state change commits and their failures never roll it
// back or surface to the caller.
type OutpassService interface {
	Apply(ctx context.Context, studentID string, req *dto.ApplyOutpassRequest, doc []byte, docName string) (*dto.OutpassResponse, error)
	FacultyDecide(ctx context.Context, facultyID, outpassID string, req *dto.DecisionRequest) (*dto.OutpassResponse, error)
	HodDecide(ctx context.Context, hodID, outpassID string, req *dto.DecisionRequest) (*dto.OutpassResponse, error)
	Cancel(ctx context.Context, studentID, outpassID string) (*dto.OutpassResponse, error)
	VerifyExit(ctx context.Context, securityID, outpassID string) (*dto.OutpassResponse, error)
	VerifyReturn(ctx context.Context, securityID, outpassID string) (*dto.OutpassResponse, error)

	Get(ctx context.Context, outpassID string) (*dto.OutpassResponse, error)
	Mine(ctx context.Context, studentID string) ([]dto.OutpassResponse, error)
	Current(ctx context.Context, studentID string) (*dto.OutpassResponse, error)
	// PendingFor lists the passes awaiting the caller's decision: for faculty
	// the pending_faculty passes they were notified about, for an HOD every
	// pending_hod pass of the department.
	PendingFor(ctx context.Context, role, employeeID, departmentID string) ([]dto.OutpassResponse, error)
	History(ctx context.Context, employeeID string) ([]dto.OutpassResponse, error)
}

type outpassService struct {
	repo       *repository.Repository
	resolver   TargetResolver
	notifier   Notifier
	escalation EscalationService
	uploader   cloudinary.Uploader

	location     *time.Location
	dayEndCutoff string // "HH:MM"
	now          func() time.Time
	logger       *zap.Logger
}

// NewOutpassService wires the workflow. uploader may be nil when document
// storage is not configured; applications with attachments then fail cleanly.
func NewOutpassService(
	repo *repository.Repository,
	resolver TargetResolver,
	notifier Notifier,
	escalation EscalationService,
	uploader cloudinary.Uploader,
	location *time.Location,
	dayEndCutoff string,
	logger *zap.Logger,
) OutpassService {
	return &outpassService{
		repo:         repo,
		resolver:     resolver,
		notifier:     notifier,
		escalation:   escalation,
		uploader:     uploader,
		location:     location,
		dayEndCutoff: dayEndCutoff,
		now:          time.Now,
		logger:       logger,
	}
}

// ── application ──

func (s *outpassService) Apply(ctx context.Context, studentID string, req *dto.ApplyOutpassRequest, doc []byte, docName string) (*dto.OutpassResponse, error) {
	student, err := s.repo.Student.GetByIDWithClass(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	if err := s.validateWindow(req.DateFrom, req.DateTo); err != nil {
		return nil, err
	}

	if active, err := s.repo.Outpass.GetActiveByStudent(ctx, studentID); err == nil && active != nil {
		return nil, ErrActiveOutpassExists
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check active outpass: %w", err)
	}

	var docURL string
	if len(doc) > 0 {
		if s.uploader == nil {
			return nil, ErrDocumentUpload
		}
		docURL, err = s.uploader.Upload(ctx, doc, docName)
		if err != nil {
			s.logger.Warn("document upload failed",
				zap.String("student_id", studentID), zap.Error(err))
			return nil, ErrDocumentUpload
		}
	}

	// Targets are resolved before the insert so the notified set is persisted
	// with the record. The recheck later re-reads it from the row, not from a
	// fresh resolution.
	targets := s.resolver.ResolveTargets(ctx, student, &model.Outpass{
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	})

	notified := make(model.UUIDArray, 0, len(targets))
	for _, t := range targets {
		notified = append(notified, t.EmployeeID)
	}

	outpass := &model.Outpass{
		StudentID:             studentID,
		ReasonCategory:        req.ReasonCategory,
		Reason:                req.Reason,
		DateFrom:              req.DateFrom,
		DateTo:                req.DateTo,
		AlternateContact:      req.AlternateContact,
		SupportingDocumentURL: docURL,
		AttendanceAtApply:     student.AttendancePercentage,
		Status:                model.StatusPendingFaculty,
		NotifiedFaculty:       notified,
	}
	if err := s.repo.Outpass.Create(ctx, outpass); err != nil {
		return nil, fmt.Errorf("create outpass: %w", err)
	}

	s.logger.Info("outpass created",
		zap.String("outpass_id", outpass.OutpassID),
		zap.String("student_id", studentID),
		zap.Int("notified_faculty", len(notified)))

	for _, t := range targets {
		s.notifier.Dispatch(t, student, outpass)
	}
	s.escalation.ScheduleRecheck(outpass.OutpassID)

	outpass.Student = student
	return s.toResponse(outpass), nil
}

// validateWindow enforces the same-day rule: both instants on today's
// calendar day in the institution timezone, departure no later than return,
// and the return wall clock no later than the day-end cutoff. Passes cannot
// be future-dated; students apply on the day they leave.
func (s *outpassService) validateWindow(from, to time.Time) error {
	localFrom := from.In(s.location)
	localTo := to.In(s.location)

	if to.Before(from) {
		return ErrInvalidTimeWindow
	}
	fy, fm, fd := localFrom.Date()
	ty, tm, td := localTo.Date()
	if fy != ty || fm != tm || fd != td {
		return ErrInvalidTimeWindow
	}
	ny, nm, nd := s.now().In(s.location).Date()
	if fy != ny || fm != nm || fd != nd {
		return ErrInvalidTimeWindow
	}

	cutoff, err := parseClock(s.dayEndCutoff)
	if err != nil {
		s.logger.Warn("invalid day-end cutoff configured, skipping check",
			zap.String("cutoff", s.dayEndCutoff))
		return nil
	}
	if localTo.Hour()*60+localTo.Minute() > cutoff {
		return ErrReturnAfterCutoff
	}
	return nil
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(v string) (int, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock value %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", v)
	}
	return h*60 + m, nil
}

// ── decisions ──

func (s *outpassService) FacultyDecide(ctx context.Context, facultyID, outpassID string, req *dto.DecisionRequest) (*dto.OutpassResponse, error) {
	outpass, err := s.getOutpass(ctx, outpassID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"faculty_approver_id": facultyID,
		"updated_at":          now,
	}
	if req.Decision == "approved" {
		updates["status"] = model.StatusPendingHod
	} else {
		updates["status"] = model.StatusRejected
		reason := req.Reason
		if reason == "" {
			reason = "Rejected by faculty"
		}
		updates["rejection_reason"] = reason
	}
	// Approval attests the parent was reachable; an explicit flag records a
	// manual check even alongside a rejection. An earlier verification stays
	// untouched.
	if (req.Decision == "approved" || req.ParentVerified) && !outpass.ParentContactVerified {
		updates["parent_contact_verified"] = true
		updates["parent_verified_by"] = facultyID
		updates["parent_verified_at"] = now
	}

	if err := s.repo.Outpass.TransitionStatus(ctx, outpassID, model.StatusPendingFaculty, updates); err != nil {
		return nil, err
	}

	s.logger.Info("faculty decision recorded",
		zap.String("outpass_id", outpassID),
		zap.String("faculty_id", facultyID),
		zap.String("decision", req.Decision))

	if req.Decision == "approved" {
		if deptID := departmentOf(outpass); deptID != "" {
			// Immediate HOD notification; the recurring sweep covers anything
			// this misses.
			go s.escalation.NotifyHodsForDepartment(context.Background(), deptID)
		}
	}

	return s.Get(ctx, outpassID)
}

func (s *outpassService) HodDecide(ctx context.Context, hodID, outpassID string, req *dto.DecisionRequest) (*dto.OutpassResponse, error) {
	if _, err := s.getOutpass(ctx, outpassID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"hod_approver_id": hodID,
		"updated_at":      time.Now(),
	}
	if req.Decision == "approved" {
		updates["status"] = model.StatusApproved
	} else {
		updates["status"] = model.StatusRejected
		reason := req.Reason
		if reason == "" {
			reason = "Rejected by HOD"
		}
		updates["rejection_reason"] = reason
	}

	if err := s.repo.Outpass.TransitionStatus(ctx, outpassID, model.StatusPendingHod, updates); err != nil {
		return nil, err
	}

	s.logger.Info("hod decision recorded",
		zap.String("outpass_id", outpassID),
		zap.String("hod_id", hodID),
		zap.String("decision", req.Decision))

	return s.Get(ctx, outpassID)
}

func (s *outpassService) Cancel(ctx context.Context, studentID, outpassID string) (*dto.OutpassResponse, error) {
	outpass, err := s.getOutpass(ctx, outpassID)
	if err != nil {
		return nil, err
	}
	if outpass.StudentID != studentID {
		return nil, ErrNotOwner
	}

	// Cancellation is only open while the request is undecided. The guard is
	// on the status observed here; losing the race to an approver lands in
	// the conflict path like any other stale transition.
	switch outpass.Status {
	case model.StatusPendingFaculty, model.StatusPendingHod:
	default:
		return nil, apperrors.ErrStatusConflict
	}

	updates := map[string]interface{}{
		"status":     model.StatusCancelled,
		"updated_at": time.Now(),
	}
	if err := s.repo.Outpass.TransitionStatus(ctx, outpassID, outpass.Status, updates); err != nil {
		return nil, err
	}

	s.logger.Info("outpass cancelled",
		zap.String("outpass_id", outpassID),
		zap.String("student_id", studentID))

	return s.Get(ctx, outpassID)
}

// ── gate verification ──

func (s *outpassService) VerifyExit(ctx context.Context, securityID, outpassID string) (*dto.OutpassResponse, error) {
	if _, err := s.getOutpass(ctx, outpassID); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":           model.StatusExited,
		"exit_verified_by": securityID,
		"exit_verified_at": now,
		"updated_at":       now,
	}
	if err := s.repo.Outpass.TransitionStatus(ctx, outpassID, model.StatusApproved, updates); err != nil {
		return nil, err
	}

	s.logger.Info("exit verified",
		zap.String("outpass_id", outpassID),
		zap.String("security_id", securityID))

	return s.Get(ctx, outpassID)
}

func (s *outpassService) VerifyReturn(ctx context.Context, securityID, outpassID string) (*dto.OutpassResponse, error) {
	outpass, err := s.getOutpass(ctx, outpassID)
	if err != nil {
		return nil, err
	}
	if outpass.ReturnVerifiedAt != nil {
		return nil, ErrAlreadyReturned
	}

	// The record stays in exited: the status marks the completed workflow and
	// the return stamps carry the gate audit.
	now := time.Now()
	updates := map[string]interface{}{
		"return_verified_by": securityID,
		"return_verified_at": now,
		"updated_at":         now,
	}
	if err := s.repo.Outpass.TransitionStatus(ctx, outpassID, model.StatusExited, updates); err != nil {
		return nil, err
	}

	s.logger.Info("return verified",
		zap.String("outpass_id", outpassID),
		zap.String("security_id", securityID))

	return s.Get(ctx, outpassID)
}

// ── queries ──

func (s *outpassService) Get(ctx context.Context, outpassID string) (*dto.OutpassResponse, error) {
	outpass, err := s.getOutpass(ctx, outpassID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(outpass), nil
}

func (s *outpassService) Mine(ctx context.Context, studentID string) ([]dto.OutpassResponse, error) {
	outpasses, err := s.repo.Outpass.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list outpasses: %w", err)
	}
	return s.toResponses(outpasses), nil
}

func (s *outpassService) Current(ctx context.Context, studentID string) (*dto.OutpassResponse, error) {
	outpass, err := s.repo.Outpass.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOutpassNotFound
		}
		return nil, fmt.Errorf("load active outpass: %w", err)
	}
	return s.Get(ctx, outpass.OutpassID)
}

func (s *outpassService) PendingFor(ctx context.Context, role, employeeID, departmentID string) ([]dto.OutpassResponse, error) {
	switch role {
	case model.RoleHod:
		outpasses, err := s.repo.Outpass.ListPendingByDepartment(ctx, model.StatusPendingHod, departmentID, 0)
		if err != nil {
			return nil, fmt.Errorf("list pending approvals: %w", err)
		}
		return s.toResponses(outpasses), nil
	default:
		outpasses, err := s.repo.Outpass.ListPendingByDepartment(ctx, model.StatusPendingFaculty, departmentID, 0)
		if err != nil {
			return nil, fmt.Errorf("list pending requests: %w", err)
		}
		// Faculty only see the requests they were notified about.
		mine := make([]model.Outpass, 0, len(outpasses))
		for _, o := range outpasses {
			if o.NotifiedFaculty.Contains(employeeID) {
				mine = append(mine, o)
			}
		}
		return s.toResponses(mine), nil
	}
}

func (s *outpassService) History(ctx context.Context, employeeID string) ([]dto.OutpassResponse, error) {
	outpasses, err := s.repo.Outpass.ListDecidedByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list decided outpasses: %w", err)
	}
	return s.toResponses(outpasses), nil
}

// ── helpers ──

func (s *outpassService) getOutpass(ctx context.Context, id string) (*model.Outpass, error) {
	outpass, err := s.repo.Outpass.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOutpassNotFound
		}
		return nil, fmt.Errorf("load outpass: %w", err)
	}
	return outpass, nil
}

func departmentOf(outpass *model.Outpass) string {
	if outpass.Student != nil && outpass.Student.Class != nil {
		return outpass.Student.Class.DepartmentID
	}
	return ""
}

func (s *outpassService) toResponse(o *model.Outpass) *dto.OutpassResponse {
	resp := &dto.OutpassResponse{
		ID:                    o.OutpassID,
		ReasonCategory:        o.ReasonCategory,
		Reason:                o.Reason,
		DateFrom:              o.DateFrom,
		DateTo:                o.DateTo,
		ExitTime:              o.DateFrom.In(s.location).Format("3:04 PM"),
		ReturnTime:            o.DateTo.In(s.location).Format("3:04 PM"),
		AlternateContact:      o.AlternateContact,
		SupportingDocumentURL: o.SupportingDocumentURL,
		AttendanceAtApply:     o.AttendanceAtApply,
		Status:                o.Status,
		ParentContactVerified: o.ParentContactVerified,
		RejectionReason:       o.RejectionReason,
		ExitVerifiedAt:        o.ExitVerifiedAt,
		ReturnVerifiedAt:      o.ReturnVerifiedAt,
		CreatedAt:             o.CreatedAt,
	}
	if o.FacultyApprover != nil {
		resp.FacultyApprover = o.FacultyApprover.Name
	}
	if o.HodApprover != nil {
		resp.HodApprover = o.HodApprover.Name
	}
	if o.Student != nil {
		summary := &dto.StudentSummary{
			ID:                 o.Student.StudentID,
			Name:               o.Student.Name,
			RollNumber:         o.Student.RollNumber,
			ParentName:         o.Student.ParentName,
			PrimaryParentPhone: o.Student.PrimaryParentPhone,
			Attendance:         o.Student.AttendancePercentage,
		}
		if o.Student.Class != nil {
			summary.Class = o.Student.Class.Name
			if o.Student.Class.Department != nil {
				summary.Department = o.Student.Class.Department.Name
			}
		}
		resp.Student = summary
	}
	return resp
}

func (s *outpassService) toResponses(outpasses []model.Outpass) []dto.OutpassResponse {
	out := make([]dto.OutpassResponse, 0, len(outpasses))
	for i := range outpasses {
		out = append(out, *s.toResponse(&outpasses[i]))
	}
	return out
}
