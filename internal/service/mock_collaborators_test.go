package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/internal/repository"
	"github.com/visweshnarni/qptestbackend/pkg/scheduler"
)

// ── notifier spy ──

type dispatchRecord struct {
	EmployeeID string
	OutpassID  string
}

type spyNotifier struct {
	mu         sync.Mutex
	dispatched []dispatchRecord
	summaries  map[string]int64 // hod employee ID → last pending count
}

func newSpyNotifier() *spyNotifier {
	return &spyNotifier{summaries: make(map[string]int64)}
}

func (s *spyNotifier) Dispatch(target model.Employee, _ *model.Student, outpass *model.Outpass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched = append(s.dispatched, dispatchRecord{
		EmployeeID: target.EmployeeID,
		OutpassID:  outpass.OutpassID,
	})
}

func (s *spyNotifier) DispatchHodSummary(hod model.Employee, pendingCount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[hod.EmployeeID] = pendingCount
}

func (s *spyNotifier) dispatchedTo() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int)
	for _, d := range s.dispatched {
		out[d.EmployeeID]++
	}
	return out
}

func (s *spyNotifier) summaryFor(employeeID string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.summaries[employeeID]
	return n, ok
}

// ── scheduler fake ──

type scheduledJob struct {
	Delay   time.Duration
	JobType string
	Payload []byte
}

// fakeScheduler records scheduling requests without running anything. Tests
// fire handlers directly.
type fakeScheduler struct {
	mu        sync.Mutex
	handlers  map[string]scheduler.Handler
	oneShots  []scheduledJob
	recurring map[string]time.Duration
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		handlers:  make(map[string]scheduler.Handler),
		recurring: make(map[string]time.Duration),
	}
}

func (f *fakeScheduler) RegisterHandler(jobType string, h scheduler.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[jobType] = h
}

func (f *fakeScheduler) Schedule(delay time.Duration, jobType string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.handlers[jobType]; !ok {
		return errors.New("no handler for " + jobType)
	}
	f.oneShots = append(f.oneShots, scheduledJob{Delay: delay, JobType: jobType, Payload: payload})
	return nil
}

func (f *fakeScheduler) ScheduleRecurring(interval time.Duration, jobType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.handlers[jobType]; !ok {
		return errors.New("no handler for " + jobType)
	}
	f.recurring[jobType] = interval
	return nil
}

func (f *fakeScheduler) Start() {}
func (f *fakeScheduler) Stop()  {}

// fire runs the handler for every one-shot of the given type. For a type
// installed as recurring there is nothing queued; a fire is one tick with a
// nil payload.
func (f *fakeScheduler) fire(ctx context.Context, jobType string) {
	f.mu.Lock()
	h := f.handlers[jobType]
	var jobs []scheduledJob
	for _, j := range f.oneShots {
		if j.JobType == jobType {
			jobs = append(jobs, j)
		}
	}
	_, recurring := f.recurring[jobType]
	f.mu.Unlock()
	if h == nil {
		return
	}
	if len(jobs) == 0 && recurring {
		h(ctx, nil)
		return
	}
	for _, j := range jobs {
		h(ctx, j.Payload)
	}
}

// ── uploader fake ──

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(_ context.Context, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// ── dedup fake ──

type memDedup struct {
	mu     sync.Mutex
	claims map[string]bool
}

func newMemDedup() *memDedup {
	return &memDedup{claims: make(map[string]bool)}
}

func (m *memDedup) ClaimNotifyWindow(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claims[key] {
		return false, nil
	}
	m.claims[key] = true
	return true, nil
}

// ── shared fixture ──

// testEnv is one department with a mentored class: mentor M, free faculty F2,
// busy faculty F1, an HOD and one student.
type testEnv struct {
	repo     *repository.Repository
	state    *mockState
	notifier *spyNotifier
	sched    *fakeScheduler

	dept    *model.Department
	class   *model.Class
	mentor  *model.Employee
	busyF   *model.Employee
	freeF   *model.Employee
	hod     *model.Employee
	student *model.Student
}

func newTestEnv() *testEnv {
	repo, state := newMockRepository()
	ctx := context.Background()

	dept := &model.Department{Name: "Computer Science"}
	repo.Department.Create(ctx, dept)

	mentor := &model.Employee{Name: "Mentor", Email: "mentor@test.edu", Phone: "9000000001", DepartmentID: dept.DepartmentID, Role: model.RoleFaculty}
	busyF := &model.Employee{Name: "Busy Faculty", Email: "busy@test.edu", Phone: "9000000002", DepartmentID: dept.DepartmentID, Role: model.RoleFaculty}
	freeF := &model.Employee{Name: "Free Faculty", Email: "free@test.edu", Phone: "9000000003", DepartmentID: dept.DepartmentID, Role: model.RoleFaculty}
	hod := &model.Employee{Name: "Head", Email: "hod@test.edu", Phone: "9000000004", DepartmentID: dept.DepartmentID, Role: model.RoleHod}
	for _, e := range []*model.Employee{mentor, busyF, freeF, hod} {
		repo.Employee.Create(ctx, e)
	}

	class := &model.Class{Name: "CSE-3A", Year: 3, DepartmentID: dept.DepartmentID}
	repo.Class.Create(ctx, class)
	repo.Class.SetMentors(ctx, class.ClassID, []string{mentor.EmployeeID})

	student := &model.Student{
		Name:                 "Asha",
		Email:                "asha@test.edu",
		RollNumber:           "21CS001",
		Phone:                "9111111111",
		ParentName:           "Ravi",
		PrimaryParentPhone:   "9222222222",
		ClassID:              class.ClassID,
		AttendancePercentage: 88,
	}
	repo.Student.Create(ctx, student)

	return &testEnv{
		repo:     repo,
		state:    state,
		notifier: newSpyNotifier(),
		sched:    newFakeScheduler(),
		dept:     dept,
		class:    class,
		mentor:   mentor,
		busyF:    busyF,
		freeF:    freeF,
		hod:      hod,
		student:  student,
	}
}

var testLocation = mustLoadLocation()

func mustLoadLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
	return loc
}

func (e *testEnv) newResolver() TargetResolver {
	return NewTargetResolver(e.repo, testLocation, zap.NewNop())
}

func (e *testEnv) newEscalation(dedup DedupStore) EscalationService {
	esc := NewEscalationService(e.repo, e.notifier, dedup, 15*time.Minute, 15*time.Minute, zap.NewNop())
	if err := esc.RegisterJobs(e.sched); err != nil {
		panic(err)
	}
	return esc
}

func (e *testEnv) newOutpassService() OutpassService {
	svc := NewOutpassService(
		e.repo,
		e.newResolver(),
		e.notifier,
		e.newEscalation(nil),
		&fakeUploader{url: "https://cdn.test/doc.pdf"},
		testLocation,
		"21:00",
		zap.NewNop(),
	)
	// Pin the clock to the fixture Monday so window() values count as "today".
	svc.(*outpassService).now = func() time.Time {
		return time.Date(2026, 9, 7, 9, 0, 0, 0, testLocation)
	}
	return svc
}

// window returns a same-day outpass window at the given local wall-clock
// hours on the next Monday.
func window(fromHour, fromMin, toHour, toMin int) (time.Time, time.Time) {
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, testLocation) // a Monday
	from := day.Add(time.Duration(fromHour)*time.Hour + time.Duration(fromMin)*time.Minute)
	to := day.Add(time.Duration(toHour)*time.Hour + time.Duration(toMin)*time.Minute)
	return from, to
}
