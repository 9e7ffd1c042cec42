// Package jobs runs the background work of the attendance service on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus describes a registered job for health reporting
type JobStatus struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next"`
	Prev     time.Time `json:"prev,omitempty"`
}

type registeredJob struct {
	entry    cron.EntryID
	schedule string
}

// Scheduler owns the cron runner and the named jobs registered on it
type Scheduler struct {
	runner *cron.Cron
	logger *zap.Logger

	mu         sync.Mutex
	registered map[string]registeredJob
}

// NewScheduler creates a scheduler whose expressions carry a seconds field.
// Overlapping runs of the same job are skipped and panics are recovered.
func NewScheduler(logger *zap.Logger) *Scheduler {
	cronLogger := cron.VerbosePrintfLogger(zap.NewStdLog(logger.Named("cron")))
	runner := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger), cron.Recover(cronLogger)),
	)
	return &Scheduler{
		runner:     runner,
		logger:     logger.Named("scheduler"),
		registered: make(map[string]registeredJob),
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting job scheduler", zap.Strings("jobs", s.JobNames()))
	s.runner.Start()
}

// Stop halts scheduling. The returned context is done once running jobs return.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping job scheduler")
	return s.runner.Stop()
}

// AddJob registers fn under name with an expression such as "0 0 23 * * *" or "@every 1h"
func (s *Scheduler) AddJob(name, schedule string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registered[name]; ok {
		return fmt.Errorf("job %s already registered", name)
	}

	id, err := s.runner.AddFunc(schedule, s.timed(name, fn))
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}
	s.registered[name] = registeredJob{entry: id, schedule: schedule}

	s.logger.Info("Registered job", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

// timed wraps fn with start/finish logging
func (s *Scheduler) timed(name string, fn func()) func() {
	return func() {
		started := time.Now()
		s.logger.Debug("Job started", zap.String("job", name))
		fn()
		s.logger.Info("Job finished",
			zap.String("job", name),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}

func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.registered[name]
	if !ok {
		return fmt.Errorf("job %s not registered", name)
	}
	s.runner.Remove(job.entry)
	delete(s.registered, name)

	s.logger.Info("Removed job", zap.String("job", name))
	return nil
}

// JobNames returns the registered job names in sorted order
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.registered))
	for name := range s.registered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status reports the schedule and next run of every job, sorted by name.
// Next is zero until the scheduler has been started.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.registered))
	for name, job := range s.registered {
		entry := s.runner.Entry(job.entry)
		out = append(out, JobStatus{
			Name:     name,
			Schedule: job.schedule,
			Next:     entry.Next,
			Prev:     entry.Prev,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
