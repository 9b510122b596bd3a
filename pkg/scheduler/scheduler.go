package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Handler processes one fired job. Handlers must swallow their own errors;
// a job failure is logged and never reaches the code that scheduled it.
type Handler func(ctx context.Context, payload []byte)

// Scheduler is the job collaborator the workflow talks to. The state machine
// never touches timers directly; it only requests scheduling here, which
// keeps the transitions synchronously testable.
type Scheduler interface {
	// RegisterHandler binds a job type to its handler. Call before Start.
	RegisterHandler(jobType string, h Handler)
	// Schedule fires a one-shot job after delay. The job is spent once it
	// runs; it never reschedules itself.
	Schedule(delay time.Duration, jobType string, payload []byte) error
	// ScheduleRecurring fires a job every interval until Stop.
	ScheduleRecurring(interval time.Duration, jobType string) error
	Start()
	Stop()
}

// CronScheduler runs recurring jobs on a cron runner and one-shot jobs on
// plain timers. There is no cancellation handle for scheduled jobs: a job
// whose work has become moot is expected to detect that itself at fire time.
type CronScheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	stopped chan struct{}
	wg      sync.WaitGroup
}

// NewCronScheduler creates a stopped scheduler.
func NewCronScheduler(logger *zap.Logger) *CronScheduler {
	return &CronScheduler{
		cron:     cron.New(),
		logger:   logger,
		handlers: make(map[string]Handler),
		stopped:  make(chan struct{}),
	}
}

// RegisterHandler binds a job type to its handler.
func (s *CronScheduler) RegisterHandler(jobType string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[jobType] = h
}

// Schedule fires jobType once after delay.
func (s *CronScheduler) Schedule(delay time.Duration, jobType string, payload []byte) error {
	if delay < 0 {
		return fmt.Errorf("scheduler: negative delay for job %q", jobType)
	}
	s.mu.RLock()
	_, ok := s.handlers[jobType]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("scheduler: no handler registered for job %q", jobType)
	}

	s.wg.Add(1)
	done := make(chan struct{})
	timer := time.AfterFunc(delay, func() {
		defer s.wg.Done()
		defer close(done)
		select {
		case <-s.stopped:
			return
		default:
		}
		s.run(jobType, payload)
	})

	// The watcher releases the waitgroup if Stop wins the race against the
	// timer, and exits as soon as the timer has fired.
	go func() {
		select {
		case <-done:
		case <-s.stopped:
			if timer.Stop() {
				s.wg.Done()
			}
		}
	}()

	return nil
}

// ScheduleRecurring fires jobType every interval.
func (s *CronScheduler) ScheduleRecurring(interval time.Duration, jobType string) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: non-positive interval for job %q", jobType)
	}
	s.mu.RLock()
	_, ok := s.handlers[jobType]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("scheduler: no handler registered for job %q", jobType)
	}

	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		s.run(jobType, nil)
	}))
	return nil
}

// Start begins executing recurring jobs.
func (s *CronScheduler) Start() {
	s.cron.Start()
	s.logger.Info("job scheduler started")
}

// Stop halts recurring jobs and discards pending one-shots.
func (s *CronScheduler) Stop() {
	close(s.stopped)
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("job scheduler stopped")
}

// run invokes a handler with panic isolation. A panicking job must not take
// down the process or any other job.
func (s *CronScheduler) run(jobType string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked",
				zap.String("job_type", jobType),
				zap.Any("panic", r),
			)
		}
	}()

	s.mu.RLock()
	h := s.handlers[jobType]
	s.mu.RUnlock()
	if h == nil {
		s.logger.Warn("job fired with no handler", zap.String("job_type", jobType))
		return
	}

	s.logger.Debug("job firing", zap.String("job_type", jobType))
	h(context.Background(), payload)
}
