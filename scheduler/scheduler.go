// Package scheduler runs named background jobs: repeating tickers for
// autosave and session reaping, one-shot delays for timed game effects.
package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobFn is the function a scheduled job runs. Panics are recovered and
// logged so one bad job cannot take the process down.
type JobFn func()

type job struct {
	repeating bool
	ticker    *time.Ticker
	timer     *time.Timer
	stop      chan struct{}
}

// Scheduler owns all background jobs. Jobs are keyed by name; scheduling
// under an existing name replaces the previous job.
type Scheduler struct {
	mu     sync.Mutex
	jobs   map[string]*job
	logger *zap.Logger
	closed chan struct{}
}

// New creates a Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		jobs:   make(map[string]*job),
		logger: logger,
		closed: make(chan struct{}),
	}
}

// RunEvery schedules fn on a fixed interval under name.
func (s *Scheduler) RunEvery(name string, interval time.Duration, fn JobFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)

	j := &job{
		repeating: true,
		ticker:    time.NewTicker(interval),
		stop:      make(chan struct{}),
	}
	s.jobs[name] = j

	go func() {
		for {
			select {
			case <-j.ticker.C:
				s.run(name, fn)
			case <-j.stop:
				j.ticker.Stop()
				return
			case <-s.closed:
				j.ticker.Stop()
				return
			}
		}
	}()
	s.logger.Info("job scheduled",
		zap.String("job", name),
		zap.Duration("interval", interval))
}

// RunAfter schedules fn to run once after delay under name.
func (s *Scheduler) RunAfter(name string, delay time.Duration, fn JobFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)

	j := &job{}
	j.timer = time.AfterFunc(delay, func() {
		s.run(name, fn)
		s.mu.Lock()
		if s.jobs[name] == j {
			delete(s.jobs, name)
		}
		s.mu.Unlock()
	})
	s.jobs[name] = j
}

func (s *Scheduler) run(name string, fn JobFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked",
				zap.String("job", name),
				zap.Any("recover", r))
		}
	}()
	fn()
}

// Cancel stops and removes the job under name. Unknown names are a no-op.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)
}

func (s *Scheduler) cancelLocked(name string) {
	j, ok := s.jobs[name]
	if !ok {
		return
	}
	if j.repeating {
		close(j.stop)
	} else {
		j.timer.Stop()
	}
	delete(s.jobs, name)
}

// Names returns the names of all live jobs.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		out = append(out, name)
	}
	return out
}

// Stop cancels every job. The Scheduler cannot be reused afterwards.
func (s *Scheduler) Stop() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, j := range s.jobs {
		if !j.repeating {
			j.timer.Stop()
		}
		delete(s.jobs, name)
	}
}
