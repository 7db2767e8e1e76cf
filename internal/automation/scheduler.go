package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrJobNotFound is returned for unknown job names
var ErrJobNotFound = errors.New("job not found")

// DefaultJobTimeout bounds a single job run
const DefaultJobTimeout = 30 * time.Minute

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is a named unit of recurring work
type Job struct {
	Name           string
	CronExpression string
	Timezone       string
	Timeout        time.Duration
	Run            func(ctx context.Context) error
}

// JobStatus represents the status of a scheduled job
type JobStatus struct {
	Name      string    `json:"name"`
	Cron      string    `json:"cron"`
	NextRun   time.Time `json:"next_run"`
	PrevRun   time.Time `json:"prev_run"`
	LastError string    `json:"last_error,omitempty"`
	Runs      int       `json:"runs"`
}

type registeredJob struct {
	job       Job
	entryID   cron.EntryID
	runs      int
	lastError error
}

// Scheduler runs jobs on cron schedules
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]*registeredJob
	logger  *zap.Logger
	mu      sync.RWMutex
	running bool
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithParser(cronParser)),
		jobs:   make(map[string]*registeredJob),
		logger: logger,
	}
}

// Start starts the cron loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.running = true

	s.logger.Info("Starting scheduler", zap.Int("jobs", len(s.jobs)))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// AddJob registers a job, replacing one with the same name
func (s *Scheduler) AddJob(job Job) error {
	if job.Name == "" {
		return errors.New("job name is required")
	}
	if job.Run == nil {
		return fmt.Errorf("job %s has no run function", job.Name)
	}
	if job.Timeout <= 0 {
		job.Timeout = DefaultJobTimeout
	}

	spec := job.CronExpression
	loc := time.UTC
	if job.Timezone != "" {
		l, err := time.LoadLocation(job.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", job.Timezone, err)
		}
		loc = l
	}
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	if specSchedule, ok := schedule.(*cron.SpecSchedule); ok {
		specSchedule.Location = loc
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobs[job.Name]; ok {
		s.cron.Remove(existing.entryID)
	}

	reg := &registeredJob{job: job}
	reg.entryID = s.cron.Schedule(schedule, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
		defer cancel()
		s.execute(ctx, reg)
	}))
	s.jobs[job.Name] = reg

	s.logger.Info("Added job",
		zap.String("job", job.Name),
		zap.String("cron", job.CronExpression),
		zap.String("timezone", loc.String()))
	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reg, ok := s.jobs[name]; ok {
		s.cron.Remove(reg.entryID)
		delete(s.jobs, name)
		s.logger.Info("Removed job", zap.String("job", name))
	}
}

// RunNow executes a registered job immediately
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	reg, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, reg)
}

func (s *Scheduler) execute(ctx context.Context, reg *registeredJob) error {
	start := time.Now()
	s.logger.Info("Executing job", zap.String("job", reg.job.Name))

	err := reg.job.Run(ctx)

	s.mu.Lock()
	reg.runs++
	reg.lastError = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", reg.job.Name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return err
	}

	s.logger.Info("Job completed",
		zap.String("job", reg.job.Name),
		zap.Duration("took", time.Since(start)))
	return nil
}

// ActiveJobs returns the number of registered jobs
func (s *Scheduler) ActiveJobs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Status returns the status of a registered job
func (s *Scheduler) Status(name string) (*JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	entry := s.cron.Entry(reg.entryID)
	status := &JobStatus{
		Name:    name,
		Cron:    reg.job.CronExpression,
		NextRun: entry.Next,
		PrevRun: entry.Prev,
		Runs:    reg.runs,
	}
	if status.NextRun.IsZero() {
		status.NextRun = entry.Schedule.Next(time.Now())
	}
	if reg.lastError != nil {
		status.LastError = reg.lastError.Error()
	}
	return status, nil
}

// ValidateCronExpression validates a cron expression
func ValidateCronExpression(expr string) error {
	_, err := cronParser.Parse(expr)
	return err
}

// DescribeCronExpression returns a human-readable description of a cron expression
func DescribeCronExpression(expr string) string {
	switch expr {
	case "0 * * * *", "@hourly":
		return "Every hour"
	case "0 0 * * *", "@daily", "@midnight":
		return "Every day at midnight"
	case "0 8 * * 1":
		return "Every Monday at 8:00 AM"
	case "0 0 * * 0", "@weekly":
		return "Every Sunday at midnight"
	case "0 0 1 * *", "@monthly":
		return "First day of every month at midnight"
	case "0 9 * * 1-5":
		return "Every weekday at 9:00 AM"
	default:
		return expr
	}
}
