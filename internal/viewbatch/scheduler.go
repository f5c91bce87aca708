package viewbatch

import (
	"sync"
	"time"
)

// scheduler debounces flushes: every Arm cancels the outstanding timer and
// starts a new one, so fire runs once the quiet period passes with no Arm.
//
// When maxWait is positive the delay is clipped so that fire runs no later
// than maxWait after the first Arm of the current cycle.
type scheduler struct {
	mu      sync.Mutex
	quiet   time.Duration
	maxWait time.Duration
	timer   *time.Timer
	cycleAt time.Time
	gen     uint64
	stopped bool
	fire    func()
	firing  sync.WaitGroup
}

func newScheduler(quiet, maxWait time.Duration, fire func()) *scheduler {
	return &scheduler{
		quiet:   quiet,
		maxWait: maxWait,
		fire:    fire,
	}
}

func (s *scheduler) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	now := time.Now()
	if s.timer == nil {
		s.cycleAt = now
	} else {
		s.timer.Stop()
	}

	delay := s.quiet
	if s.maxWait > 0 {
		remaining := s.maxWait - now.Sub(s.cycleAt)
		if remaining < delay {
			delay = max(remaining, 0)
		}
	}

	// A timer whose Stop lost the race still runs its func; the generation
	// lets it recognise that it was replaced.
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(delay, func() { s.onTimer(gen) })
}

func (s *scheduler) onTimer(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.firing.Add(1)
	s.mu.Unlock()

	defer s.firing.Done()
	s.fire()
}

// Armed reports whether a flush is currently scheduled.
func (s *scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels the outstanding timer and waits for a fire that is already
// running. Arm is a no-op afterwards.
func (s *scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.firing.Wait()
}
