// Package scheduler repeats claim runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrBusy is returned when a job is started while another one is running
var ErrBusy = errors.New("another job is running")

// Job is one scheduled task
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron schedules. Jobs never overlap: a tick that
// arrives while a job is still going is skipped.
type Scheduler struct {
	cron     *cron.Cron
	jobs     map[string]cron.EntryID
	timezone *time.Location
	timeout  time.Duration
	logger   *zap.Logger
	running  sync.Mutex
}

// New creates a scheduler in the given timezone; each job run is bounded by timeout
func New(timezone string, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Hour
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		cron:     c,
		jobs:     make(map[string]cron.EntryID),
		timezone: loc,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// AddJob adds a job with a cron schedule, e.g. "0 */6 * * *"
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		_ = s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info("job added", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		s.logger.Info("job removed", zap.String("job", name))
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.logger.Info("scheduler starting", zap.String("timezone", s.timezone.String()))
	s.cron.Start()
}

// Stop halts the scheduler; the returned context is done once running jobs finish
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("scheduler stopping")
	return s.cron.Stop()
}

// RunNow executes a job immediately with the scheduler's timeout
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) error {
	if !s.running.TryLock() {
		s.logger.Warn("job skipped, previous run still going", zap.String("job", name))
		return ErrBusy
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("job starting", zap.String("job", name))
	start := time.Now()

	if err := job(ctx); err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		return err
	}
	s.logger.Info("job completed", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	infos := make([]JobInfo, 0, len(s.jobs))
	for name, entryID := range s.jobs {
		entry := s.cron.Entry(entryID)
		if !entry.Valid() {
			continue
		}
		infos = append(infos, JobInfo{
			Name:    name,
			NextRun: entry.Next,
			LastRun: entry.Prev,
		})
	}
	return infos
}
