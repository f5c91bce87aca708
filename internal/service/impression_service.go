package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/dealview-tracker/internal/metrics"
	"github.com/vogiaan1904/dealview-tracker/internal/models"
	"github.com/vogiaan1904/dealview-tracker/internal/viewbatch"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
)

type impression struct {
	binding   *viewbatch.Binding
	mountedAt time.Time
	seenAt    time.Time
}

type impressionService struct {
	batcher *viewbatch.ViewBatcher
	l       logger.Logger
	m       *metrics.ViewMetrics
	cfg     ImpressionConfig
	now     func() time.Time

	mu          sync.Mutex
	impressions map[string]*impression

	// Sweeper state
	swMu         sync.Mutex
	isRunning    bool
	startedAt    time.Time
	lastSwept    time.Time
	totalEvicted int64
	stopCh       chan struct{}
	ticker       *time.Ticker
	wg           sync.WaitGroup
}

func NewImpressionService(
	batcher *viewbatch.ViewBatcher,
	cfg ImpressionConfig,
	l logger.Logger,
	m *metrics.ViewMetrics,
) ImpressionService {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	return &impressionService{
		batcher:     batcher,
		l:           l,
		m:           m,
		cfg:         cfg,
		now:         time.Now,
		impressions: make(map[string]*impression),
	}
}

func (s *impressionService) Mount(ctx context.Context, in MountInput) (*MountOutput, error) {
	if in.DealID == "" {
		return nil, ErrDealIDRequired
	}

	instanceID := in.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	now := s.now()

	s.mu.Lock()
	if _, ok := s.impressions[instanceID]; ok {
		s.mu.Unlock()
		s.l.Warnf(ctx, "service.impressionService.Mount: %v", ErrInstanceAlreadyMounted)
		return nil, ErrInstanceAlreadyMounted
	}
	s.impressions[instanceID] = &impression{
		binding:   s.batcher.NewBinding(in.DealID),
		mountedAt: now,
		seenAt:    now,
	}
	active := len(s.impressions)
	s.mu.Unlock()

	s.setActive(active)
	s.l.Debugf(ctx, "Impression mounted - instance_id: %s, deal_id: %s", instanceID, in.DealID)

	return &MountOutput{
		InstanceID: instanceID,
		DealID:     in.DealID,
		MountedAt:  now,
	}, nil
}

func (s *impressionService) ReportVisibility(ctx context.Context, in VisibilityInput) (*VisibilityOutput, error) {
	if math.IsNaN(in.Ratio) || in.Ratio < 0 || in.Ratio > 1 {
		return nil, ErrInvalidRatio
	}

	s.mu.Lock()
	imp, ok := s.impressions[in.InstanceID]
	if ok {
		imp.seenAt = s.now()
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrInstanceNotFound
	}

	fired := imp.binding.Observe(in.Ratio)
	if fired {
		s.l.Debugf(ctx, "Deal view fired - instance_id: %s, deal_id: %s", in.InstanceID, imp.binding.DealID())
	}

	return &VisibilityOutput{
		InstanceID: in.InstanceID,
		Fired:      fired,
	}, nil
}

func (s *impressionService) Unmount(ctx context.Context, instanceID string) error {
	s.mu.Lock()
	imp, ok := s.impressions[instanceID]
	if ok {
		delete(s.impressions, instanceID)
	}
	active := len(s.impressions)
	s.mu.Unlock()

	if !ok {
		return ErrInstanceNotFound
	}

	imp.binding.Detach()
	s.setActive(active)
	s.l.Debugf(ctx, "Impression unmounted - instance_id: %s", instanceID)

	return nil
}

func (s *impressionService) GetImpression(ctx context.Context, instanceID string) (*models.Impression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	imp, ok := s.impressions[instanceID]
	if !ok {
		return nil, ErrInstanceNotFound
	}

	return &models.Impression{
		InstanceID: instanceID,
		DealID:     imp.binding.DealID(),
		Fired:      imp.binding.Fired(),
		MountedAt:  imp.mountedAt,
		SeenAt:     imp.seenAt,
	}, nil
}

func (s *impressionService) TrackView(ctx context.Context, dealID string) error {
	err := s.batcher.Enqueue(dealID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, viewbatch.ErrEmptyDealID):
		return ErrDealIDRequired
	case errors.Is(err, viewbatch.ErrBatcherClosed):
		s.l.Warnf(ctx, "service.impressionService.TrackView: %v", err)
		return ErrTrackingUnavailable
	default:
		s.l.Errorf(ctx, "service.impressionService.TrackView: %v", err)
		return err
	}
}

func (s *impressionService) setActive(n int) {
	if s.m != nil {
		s.m.ActiveBindings.Set(float64(n))
	}
}
