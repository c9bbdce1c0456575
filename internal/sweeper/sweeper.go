// Package sweeper runs periodic maintenance jobs on a cron schedule.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/logging"
)

// Job is one maintenance task.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Sweeper runs every job each time the schedule fires. Runs never overlap;
// a tick that arrives while the previous run is still busy is skipped.
type Sweeper struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// New validates spec (standard five-field cron syntax or a descriptor such
// as "@every 5m") and prepares a sweeper. Each run is bounded by timeout.
func New(spec string, loc *time.Location, timeout time.Duration, logger *slog.Logger, jobs ...Job) (*Sweeper, error) {
	if len(jobs) == 0 {
		return nil, errors.New("sweeper: no jobs")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("sweeper: invalid schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sweeper{
		cron:    cron.New(cron.WithLocation(loc)),
		jobs:    jobs,
		timeout: timeout,
		logger:  logger.With("component", "sweeper"),
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("sweeper: schedule: %w", err)
	}
	return s, nil
}

// Start begins firing on the schedule in a background goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("sweeper started", "jobs", len(s.jobs))
}

// Stop prevents further runs and waits for a run in progress, or until ctx ends.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_ = s.RunOnce(ctx)
}

// RunOnce runs every job in order and joins their errors. It returns nil
// without running anything when another run is in progress.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "sweep skipped, previous run still busy")
		return nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	var errs []error
	for _, job := range s.jobs {
		logger := s.logger.With("job", job.Name)
		started := time.Now()
		err := job.Run(logging.ContextWithLogger(ctx, logger))
		if err != nil {
			logger.ErrorContext(ctx, "sweep job failed", "error", err, "duration", time.Since(started))
			errs = append(errs, fmt.Errorf("%s: %w", job.Name, err))
			continue
		}
		logger.InfoContext(ctx, "sweep job finished", "duration", time.Since(started))
	}
	return errors.Join(errs...)
}
