package service

import (
	"context"
	"time"

	"github.com/vogiaan1904/dealview-tracker/internal/metrics"
	"github.com/vogiaan1904/dealview-tracker/internal/models"
	repo "github.com/vogiaan1904/dealview-tracker/internal/repository/redis"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
)

type statsService struct {
	repo repo.ViewRepository
	l    logger.Logger
	m    *metrics.ViewMetrics
}

func NewStatsService(repo repo.ViewRepository, l logger.Logger, m *metrics.ViewMetrics) StatsService {
	return &statsService{
		repo: repo,
		l:    l,
		m:    m,
	}
}

func (s *statsService) RecordView(ctx context.Context, in RecordViewInput) (int64, error) {
	if in.DealID == "" {
		return 0, ErrDealIDRequired
	}

	at := in.ViewedAt
	if at.IsZero() {
		at = time.Now()
	}

	views, err := s.repo.IncrementViews(ctx, in.DealID, at)
	if err != nil {
		s.l.Errorf(ctx, "service.statsService.RecordView: %v", err)
		return 0, err
	}

	if s.m != nil {
		source := in.Source
		if source == "" {
			source = ViewSourceBatcher
		}
		s.m.ViewsRecorded.WithLabelValues(source).Inc()
	}

	return views, nil
}

func (s *statsService) GetDealViews(ctx context.Context, dealID string) (*models.DealViewCount, error) {
	if dealID == "" {
		return nil, ErrDealIDRequired
	}

	out, err := s.repo.GetViews(ctx, dealID)
	if err != nil {
		s.l.Errorf(ctx, "service.statsService.GetDealViews: %v", err)
		return nil, err
	}

	return out, nil
}

// TopDeals returns the most viewed deals. limit falls back to
// DefaultTopDealsLimit and is capped at MaxTopDealsLimit.
func (s *statsService) TopDeals(ctx context.Context, limit int64) ([]models.DealViewCount, error) {
	if limit <= 0 {
		limit = DefaultTopDealsLimit
	}
	limit = min(limit, MaxTopDealsLimit)

	out, err := s.repo.TopDeals(ctx, limit)
	if err != nil {
		s.l.Errorf(ctx, "service.statsService.TopDeals: %v", err)
		return nil, err
	}

	return out, nil
}
