package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/liamjsc/courtside/internal/domain/jobrun"
	"github.com/liamjsc/courtside/internal/platform/logging"
)

// JobHandler does the work of one scheduled job. The returned map becomes the
// run's structured result payload.
type JobHandler func(ctx context.Context) (map[string]any, error)

// JobSpec declares one registered job. Schedule is a standard five-field cron
// expression.
type JobSpec struct {
	Name     string
	Schedule string
	Enabled  bool
	Handler  JobHandler
}

type registeredJob struct {
	spec    JobSpec
	entryID cron.EntryID
	enabled atomic.Bool
	running atomic.Bool
}

type SchedulerService struct {
	cron    *cron.Cron
	history jobrun.History
	logger  *logging.Logger

	mu   sync.Mutex
	jobs map[string]*registeredJob

	started  atomic.Bool
	shutdown atomic.Bool

	now func() time.Time
}

func NewSchedulerService(history jobrun.History, logger *logging.Logger) *SchedulerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SchedulerService{
		cron:    cron.New(),
		history: history,
		logger:  logger,
		jobs:    map[string]*registeredJob{},
		now:     time.Now,
	}
}

// Register adds a job to the registry and schedules it. Registering a
// duplicate name or a bad cron expression fails.
func (s *SchedulerService) Register(spec JobSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: job name is required", ErrInvalidInput)
	}
	if spec.Handler == nil {
		return fmt.Errorf("%w: job %s has no handler", ErrInvalidInput, spec.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[spec.Name]; exists {
		return fmt.Errorf("%w: job %s is already registered", ErrInvalidInput, spec.Name)
	}

	job := &registeredJob{spec: spec}
	job.enabled.Store(spec.Enabled)

	entryID, err := s.cron.AddFunc(spec.Schedule, func() {
		s.runJob(context.Background(), job, false)
	})
	if err != nil {
		return fmt.Errorf("%w: job %s schedule %q: %v", ErrInvalidInput, spec.Name, spec.Schedule, err)
	}
	job.entryID = entryID
	s.jobs[spec.Name] = job
	return nil
}

// Start begins dispatching cron ticks. Safe to call once.
func (s *SchedulerService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	registered := len(s.jobs)
	s.mu.Unlock()
	s.cron.Start()
	s.logger.Info("job scheduler started", "jobs", registered)
}

// Shutdown stops the cron runner and waits for in-flight jobs. Repeat calls
// are no-ops.
func (s *SchedulerService) Shutdown(ctx context.Context) error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("job scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler shutdown interrupted: %w", ctx.Err())
	}
}

// RunNow triggers a job immediately, bypassing its enabled flag but not its
// overlap protection.
func (s *SchedulerService) RunNow(ctx context.Context, name string) (jobrun.Run, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return jobrun.Run{}, fmt.Errorf("%w: job %s", ErrNotFound, name)
	}
	return s.runJob(ctx, job, true), nil
}

// Enable turns a job's scheduled ticks back on.
func (s *SchedulerService) Enable(name string) error {
	return s.setEnabled(name, true)
}

// Disable stops a job's scheduled ticks. Manual RunNow still works.
func (s *SchedulerService) Disable(name string) error {
	return s.setEnabled(name, false)
}

func (s *SchedulerService) setEnabled(name string, enabled bool) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: job %s", ErrNotFound, name)
	}
	job.enabled.Store(enabled)
	return nil
}

// Jobs lists the registered job names with their current enabled state.
func (s *SchedulerService) Jobs() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.jobs))
	for name, job := range s.jobs {
		out[name] = job.enabled.Load()
	}
	return out
}

// History returns recent runs, most recent first. An empty name spans all
// jobs.
func (s *SchedulerService) History(ctx context.Context, name string, limit int) ([]jobrun.Run, error) {
	if name == "" {
		return s.history.List(ctx, limit)
	}
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, name)
	}
	return s.history.ListByJob(ctx, name, limit)
}

// runJob executes one job tick or trigger. A disabled scheduled tick is
// dropped silently; an overlapping tick records a skipped run. Handler
// panics become Failed runs, never a crashed scheduler.
func (s *SchedulerService) runJob(ctx context.Context, job *registeredJob, manual bool) jobrun.Run {
	if !manual && !job.enabled.Load() {
		return jobrun.Run{}
	}

	startedAt := s.now()
	if !job.running.CompareAndSwap(false, true) {
		run := jobrun.Run{
			JobName:     job.spec.Name,
			Status:      jobrun.StatusSucceeded,
			Skipped:     true,
			StartedAt:   startedAt,
			CompletedAt: startedAt,
			Result:      map[string]any{"reason": "previous run still active"},
		}
		s.appendRun(ctx, run)
		return run
	}
	defer job.running.Store(false)

	ctx, span := startUsecaseSpan(ctx, "SchedulerService.runJob",
		oteltrace.WithAttributes(
			attribute.String("job.name", job.spec.Name),
			attribute.Bool("job.manual", manual),
		))
	defer span.End()

	run := jobrun.Run{
		JobName:   job.spec.Name,
		Status:    jobrun.StatusRunning,
		StartedAt: startedAt,
	}

	result, err := s.invokeHandler(ctx, job.spec.Handler)

	run.CompletedAt = s.now()
	run.Duration = run.CompletedAt.Sub(run.StartedAt)
	run.Result = result
	if err != nil {
		run.Status = jobrun.StatusFailed
		run.Error = err.Error()
		s.logger.ErrorContext(ctx, "job failed",
			"job", job.spec.Name, "duration", run.Duration.String(), "error", err.Error())
	} else {
		run.Status = jobrun.StatusSucceeded
		s.logger.InfoContext(ctx, "job completed",
			"job", job.spec.Name, "duration", run.Duration.String())
	}

	s.appendRun(ctx, run)
	return run
}

func (s *SchedulerService) invokeHandler(ctx context.Context, handler JobHandler) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()
	return handler(ctx)
}

func (s *SchedulerService) appendRun(ctx context.Context, run jobrun.Run) {
	if err := s.history.Append(ctx, run); err != nil {
		s.logger.WarnContext(ctx, "failed to record job run",
			"job", run.JobName, "error", err.Error())
	}
}
