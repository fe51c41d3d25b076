package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is the unit of work executed on every tick.
type Job func(ctx context.Context)

type job struct {
	interval time.Duration
	run      Job
	stop     chan struct{}
	done     chan struct{}
}

// Supervisor owns a set of keyed periodic jobs. Each job runs once
// immediately on start and then on every interval tick until stopped.
type Supervisor struct {
	mu     sync.Mutex
	jobs   map[string]*job
	logger zerolog.Logger
}

// New constructs an empty supervisor.
func New(logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		jobs:   make(map[string]*job),
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds a job definition under the given key without starting it.
func (s *Supervisor) Register(key string, interval time.Duration, run Job) error {
	if interval <= 0 {
		return fmt.Errorf("job %q: interval must be positive", key)
	}
	if run == nil {
		return fmt.Errorf("job %q: run function must not be nil", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[key]; exists {
		return fmt.Errorf("job %q already registered", key)
	}

	s.jobs[key] = &job{interval: interval, run: run}
	return nil
}

// Start launches the job registered under key. It fails if the key is
// unknown or the job is already running.
func (s *Supervisor) Start(ctx context.Context, key string) error {
	s.mu.Lock()
	j, ok := s.jobs[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown job %q", key)
	}
	if j.stop != nil {
		s.mu.Unlock()
		return fmt.Errorf("job %q already running", key)
	}
	j.stop = make(chan struct{})
	j.done = make(chan struct{})
	stop, done := j.stop, j.done
	interval, run := j.interval, j.run
	s.mu.Unlock()

	go s.loop(ctx, key, interval, run, stop, done)
	return nil
}

// Stop halts the job under key and waits for its loop to exit.
func (s *Supervisor) Stop(key string) error {
	s.mu.Lock()
	j, ok := s.jobs[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown job %q", key)
	}
	if j.stop == nil {
		s.mu.Unlock()
		return fmt.Errorf("job %q not running", key)
	}
	stop, done := j.stop, j.done
	j.stop, j.done = nil, nil
	s.mu.Unlock()

	close(stop)
	<-done
	return nil
}

// Restart stops the job if running and starts it again.
func (s *Supervisor) Restart(ctx context.Context, key string) error {
	if err := s.Stop(key); err != nil {
		s.mu.Lock()
		_, known := s.jobs[key]
		s.mu.Unlock()
		if !known {
			return err
		}
	}
	return s.Start(ctx, key)
}

// StartAll launches every registered job that is not already running.
func (s *Supervisor) StartAll(ctx context.Context) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.jobs))
	for key, j := range s.jobs {
		if j.stop == nil {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	for _, key := range keys {
		if err := s.Start(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("job", key).Msg("failed to start job")
		}
	}
}

// StopAll halts every running job and waits for the loops to exit.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.jobs))
	for key, j := range s.jobs {
		if j.stop != nil {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	for _, key := range keys {
		if err := s.Stop(key); err != nil {
			s.logger.Warn().Err(err).Str("job", key).Msg("failed to stop job")
		}
	}
}

func (s *Supervisor) loop(ctx context.Context, key string, interval time.Duration, run Job, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	s.logger.Info().Str("job", key).Dur("interval", interval).Msg("job started")
	run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			run(ctx)
		case <-stop:
			s.logger.Info().Str("job", key).Msg("job stopped")
			return
		case <-ctx.Done():
			s.logger.Info().Str("job", key).Msg("job cancelled")
			return
		}
	}
}
