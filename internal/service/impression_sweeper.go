package service

import (
	"context"
	"time"
)

func (s *impressionService) StartSweeper(ctx context.Context) error {
	s.swMu.Lock()
	defer s.swMu.Unlock()

	if s.isRunning {
		return ErrSweeperRunning
	}

	if s.cfg.BindingTTL <= 0 {
		s.l.Info(ctx, "Binding sweeper disabled, idle bindings are kept until unmount")
		return nil
	}

	s.l.Infof(ctx, "Starting binding sweeper - interval: %s, ttl: %s", s.cfg.SweepInterval, s.cfg.BindingTTL)

	s.isRunning = true
	s.startedAt = s.now()
	s.stopCh = make(chan struct{})
	s.ticker = time.NewTicker(s.cfg.SweepInterval)

	stopCh, tickC := s.stopCh, s.ticker.C
	s.wg.Go(func() {
		s.sweepLoop(ctx, stopCh, tickC)
	})

	return nil
}

func (s *impressionService) StopSweeper() error {
	s.swMu.Lock()
	if !s.isRunning {
		s.swMu.Unlock()
		return ErrSweeperNotRunning
	}

	close(s.stopCh)
	s.ticker.Stop()
	s.isRunning = false
	s.swMu.Unlock()

	s.wg.Wait()
	s.l.Info(context.Background(), "Binding sweeper stopped")

	return nil
}

func (s *impressionService) GetSweeperStatus() SweeperStatus {
	s.swMu.Lock()
	defer s.swMu.Unlock()

	return SweeperStatus{
		IsRunning:    s.isRunning,
		StartedAt:    s.startedAt,
		LastSwept:    s.lastSwept,
		TotalEvicted: s.totalEvicted,
	}
}

func (s *impressionService) sweepLoop(ctx context.Context, stopCh <-chan struct{}, tickC <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			s.l.Info(ctx, "Binding sweeper stopped due to context cancellation")
			return
		case <-stopCh:
			return
		case <-tickC:
			if n := s.evictIdle(ctx); n > 0 {
				s.l.Infof(ctx, "Evicted %d idle impression bindings", n)
			}
		}
	}
}

// evictIdle detaches every binding that has not been mounted or reported
// within the binding TTL.
func (s *impressionService) evictIdle(ctx context.Context) int {
	now := s.now()
	cutoff := now.Add(-s.cfg.BindingTTL)

	s.mu.Lock()
	var idle []*impression
	for id, imp := range s.impressions {
		if imp.seenAt.Before(cutoff) {
			idle = append(idle, imp)
			delete(s.impressions, id)
		}
	}
	active := len(s.impressions)
	s.mu.Unlock()

	for _, imp := range idle {
		imp.binding.Detach()
	}

	s.setActive(active)
	if s.m != nil && len(idle) > 0 {
		s.m.BindingsEvicted.Add(float64(len(idle)))
	}

	s.swMu.Lock()
	s.lastSwept = now
	s.totalEvicted += int64(len(idle))
	s.swMu.Unlock()

	s.l.Debugf(ctx, "Binding sweep done - evicted: %d, active: %d", len(idle), active)

	return len(idle)
}
