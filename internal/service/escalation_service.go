package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/internal/repository"
	"github.com/visweshnarni/qptestbackend/pkg/scheduler"
)

// Job types owned by this service.
const (
	JobOutpassRecheck = "outpass:recheck"
	JobHodSweep       = "outpass:hod-sweep"
)

// DedupStore claims a de-duplication window for a notification key. Satisfied
// by pkg/redis.Client; an EscalationService built with a nil store simply
// notifies without de-duplication.
type DedupStore interface {
	ClaimNotifyWindow(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// EscalationService keeps slow approvals moving. Two mechanisms:
//
//   - a one-shot recheck per request, scheduled at creation, which re-notifies
//     the original faculty set if the request is still waiting on them;
//   - a recurring department sweep that reminds each HOD of their pending
//     approval count.
//
// The two never overlap on a single request: the recheck only acts on
// pending_faculty and the sweep only counts pending_hod.
type EscalationService interface {
	// RegisterJobs binds handlers and installs the recurring sweep. Call once
	// before the scheduler starts.
	RegisterJobs(s scheduler.Scheduler) error
	// ScheduleRecheck enqueues the delayed re-check for one outpass.
	// Best-effort: a scheduling failure is logged, never returned to the
	// request that triggered it.
	ScheduleRecheck(outpassID string)
	// NotifyHodsForDepartment sends each HOD of the department their current
	// pending count, subject to the de-duplication window. Used right after a
	// faculty approval moves a request to pending_hod.
	NotifyHodsForDepartment(ctx context.Context, departmentID string)
}

type recheckPayload struct {
	OutpassID string `json:"outpass_id"`
}

type escalationService struct {
	repo     *repository.Repository
	notifier Notifier
	dedup    DedupStore
	sched    scheduler.Scheduler

	recheckDelay  time.Duration
	sweepInterval time.Duration
	logger        *zap.Logger
}

// NewEscalationService creates the escalation workflow. dedup may be nil.
func NewEscalationService(
	repo *repository.Repository,
	notifier Notifier,
	dedup DedupStore,
	recheckDelay, sweepInterval time.Duration,
	logger *zap.Logger,
) EscalationService {
	return &escalationService{
		repo:          repo,
		notifier:      notifier,
		dedup:         dedup,
		recheckDelay:  recheckDelay,
		sweepInterval: sweepInterval,
		logger:        logger,
	}
}

func (s *escalationService) RegisterJobs(sched scheduler.Scheduler) error {
	s.sched = sched
	sched.RegisterHandler(JobOutpassRecheck, s.handleRecheck)
	sched.RegisterHandler(JobHodSweep, s.handleHodSweep)
	return sched.ScheduleRecurring(s.sweepInterval, JobHodSweep)
}

func (s *escalationService) ScheduleRecheck(outpassID string) {
	if s.sched == nil {
		s.logger.Warn("recheck requested before jobs registered",
			zap.String("outpass_id", outpassID))
		return
	}
	payload, _ := json.Marshal(recheckPayload{OutpassID: outpassID})
	if err := s.sched.Schedule(s.recheckDelay, JobOutpassRecheck, payload); err != nil {
		s.logger.Warn("schedule recheck failed",
			zap.String("outpass_id", outpassID), zap.Error(err))
	}
}

// handleRecheck re-examines one outpass after the recheck delay. Anything that
// already moved past pending_faculty is a no-op: there is no cancellation
// handle for scheduled jobs, so mootness is detected here at fire time.
func (s *escalationService) handleRecheck(ctx context.Context, payload []byte) {
	var p recheckPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.OutpassID == "" {
		s.logger.Warn("recheck payload malformed", zap.Error(err))
		return
	}

	outpass, err := s.repo.Outpass.GetByID(ctx, p.OutpassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug("recheck: outpass gone", zap.String("outpass_id", p.OutpassID))
			return
		}
		s.logger.Warn("recheck: load outpass failed",
			zap.String("outpass_id", p.OutpassID), zap.Error(err))
		return
	}
	if outpass.Status != model.StatusPendingFaculty {
		s.logger.Debug("recheck: already handled",
			zap.String("outpass_id", p.OutpassID),
			zap.String("status", outpass.Status))
		return
	}
	if outpass.Student == nil {
		s.logger.Warn("recheck: outpass has no student",
			zap.String("outpass_id", p.OutpassID))
		return
	}

	// Re-notify exactly the set that was notified at creation. The timetable
	// situation may have changed since, but these are the people already
	// holding the request.
	targets, err := s.repo.Employee.ListByIDs(ctx, outpass.NotifiedFaculty)
	if err != nil {
		s.logger.Warn("recheck: load notified faculty failed",
			zap.String("outpass_id", p.OutpassID), zap.Error(err))
		return
	}
	if len(targets) == 0 {
		s.logger.Warn("recheck: no faculty to re-notify",
			zap.String("outpass_id", p.OutpassID))
		return
	}

	s.logger.Info("recheck: re-notifying faculty",
		zap.String("outpass_id", p.OutpassID),
		zap.Int("targets", len(targets)))
	for _, t := range targets {
		s.notifier.Dispatch(t, outpass.Student, outpass)
	}
}

// handleHodSweep reminds every HOD with a non-zero pending_hod count in their
// department.
func (s *escalationService) handleHodSweep(ctx context.Context, _ []byte) {
	hods, err := s.repo.Employee.ListByRole(ctx, model.RoleHod)
	if err != nil {
		s.logger.Warn("hod sweep: list hods failed", zap.Error(err))
		return
	}

	for _, hod := range hods {
		s.notifyHod(ctx, hod)
	}
}

func (s *escalationService) NotifyHodsForDepartment(ctx context.Context, departmentID string) {
	hods, err := s.repo.Employee.ListByDepartmentAndRole(ctx, departmentID, model.RoleHod, nil)
	if err != nil {
		s.logger.Warn("notify hods: list failed",
			zap.String("department_id", departmentID), zap.Error(err))
		return
	}
	for _, hod := range hods {
		s.notifyHod(ctx, hod)
	}
}

// notifyHod counts the HOD's pending approvals and dispatches the summary.
// The count is taken fresh from the table every time; a stale cached figure
// would read wrong over the phone.
func (s *escalationService) notifyHod(ctx context.Context, hod model.Employee) {
	count, err := s.repo.Outpass.CountByStatusAndDepartment(ctx, model.StatusPendingHod, hod.DepartmentID)
	if err != nil {
		s.logger.Warn("hod notify: count failed",
			zap.String("employee_id", hod.EmployeeID), zap.Error(err))
		return
	}
	if count == 0 {
		return
	}

	// The sweep and the post-approval notify can land close together; the
	// claim window caps it at one summary per HOD per interval.
	if s.dedup != nil {
		ok, err := s.dedup.ClaimNotifyWindow(ctx, "hod:"+hod.EmployeeID, s.sweepInterval)
		if err != nil {
			s.logger.Warn("hod notify: dedup claim failed, sending anyway",
				zap.String("employee_id", hod.EmployeeID), zap.Error(err))
		} else if !ok {
			s.logger.Debug("hod notify: window already claimed",
				zap.String("employee_id", hod.EmployeeID))
			return
		}
	}

	s.logger.Info("hod notify: dispatching summary",
		zap.String("employee_id", hod.EmployeeID),
		zap.Int64("pending", count))
	s.notifier.DispatchHodSummary(hod, count)
}
