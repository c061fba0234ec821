// Package scheduler runs the background jobs of the server on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/samber/lo"
)

// ErrJobNotFound is returned for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusScheduled JobStatus = "scheduled"
)

// JobInfo contains information about a scheduled job.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"lastRun"`
	NextRun     time.Time `json:"nextRun"`
	RunCount    int       `json:"runCount"`
	ErrorCount  int       `json:"errorCount"`
	LastError   string    `json:"lastError,omitempty"`
}

// JobFunc represents a function that can be scheduled.
type JobFunc func(ctx context.Context) error

type job struct {
	info JobInfo
	fn   JobFunc
	cron gocron.Job
}

// Scheduler manages scheduled jobs.
type Scheduler struct {
	gocron gocron.Scheduler
	mu     sync.RWMutex
	jobs   map[string]*job
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler.
func New() (*Scheduler, error) {
	gocronScheduler, err := gocron.NewScheduler(gocron.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		gocron: gocronScheduler,
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.gocron.Start()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, j := range s.jobs {
		if nextRun, err := j.cron.NextRun(); err == nil {
			j.info.NextRun = nextRun
			log.Debug("Next run time for job", "id", id, "nextRun", nextRun)
		}
	}
	log.Info("Job scheduler started", "jobs", len(s.jobs))
}

// Stop stops the scheduler and cancels running jobs.
func (s *Scheduler) Stop() error {
	s.cancel()
	return s.gocron.Shutdown()
}

// AddCronJob adds a singleton job running on a five field cron schedule.
func (s *Scheduler) AddCronJob(id, name, description, schedule string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s already exists", id)
	}

	j := &job{
		info: JobInfo{
			ID:          id,
			Name:        name,
			Description: description,
			Status:      JobStatusScheduled,
			Schedule:    strings.TrimSpace(schedule),
		},
		fn: fn,
	}

	cronJob, err := s.gocron.NewJob(
		gocron.CronJob(j.info.Schedule, false),
		gocron.NewTask(s.wrap(id)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(id),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	j.cron = cronJob

	s.jobs[id] = j
	log.Info("Added job to scheduler", "id", id, "schedule", j.info.Schedule)
	return nil
}

// RunJobNow triggers a job outside its schedule.
func (s *Scheduler) RunJobNow(id string) error {
	s.mu.RLock()
	j, exists := s.jobs[id]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	log.Info("Manually triggering job", "id", id)
	if err := j.cron.RunNow(); err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", id, err)
	}
	return nil
}

// Jobs returns a snapshot of every job, ordered by id.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := lo.Keys(s.jobs)
	slices.Sort(ids)
	return lo.Map(ids, func(id string, _ int) JobInfo {
		return s.jobs[id].info
	})
}

// Job returns a snapshot of a single job.
func (s *Scheduler) Job(id string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return JobInfo{}, false
	}
	return j.info, true
}

func (s *Scheduler) wrap(id string) func() {
	return func() {
		s.mu.Lock()
		j := s.jobs[id]
		if j == nil {
			s.mu.Unlock()
			log.Error("Job info not found", "id", id)
			return
		}
		j.info.Status = JobStatusRunning
		j.info.LastRun = time.Now()
		j.info.RunCount++
		fn := j.fn
		s.mu.Unlock()

		log.Info("Starting job", "id", id)
		err := fn(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if nextRun, nerr := j.cron.NextRun(); nerr == nil {
			j.info.NextRun = nextRun
		}
		if err != nil {
			log.Error("Job failed", "id", id, "error", err)
			j.info.Status = JobStatusFailed
			j.info.ErrorCount++
			j.info.LastError = err.Error()
			return
		}
		log.Info("Job completed", "id", id, "duration", time.Since(j.info.LastRun))
		j.info.Status = JobStatusCompleted
		j.info.LastError = ""
	}
}
