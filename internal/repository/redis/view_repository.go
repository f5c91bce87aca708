package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/dealview-tracker/internal/models"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
)

type ViewRepository interface {
	IncrementViews(ctx context.Context, dealID string, at time.Time) (int64, error)
	GetViews(ctx context.Context, dealID string) (*models.DealViewCount, error)
	TopDeals(ctx context.Context, limit int64) ([]models.DealViewCount, error)
}

type redisViewRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisViewRepository(cli *redis.Client, l logger.Logger) ViewRepository {
	return &redisViewRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisViewRepository) IncrementViews(ctx context.Context, dealID string, at time.Time) (int64, error) {
	pipe := r.cli.TxPipeline()
	incr := pipe.Incr(ctx, r.viewsKey(dealID))
	pipe.ZIncrBy(ctx, r.leaderboardKey(), 1, dealID)
	pipe.Set(ctx, r.lastViewedKey(dealID), at.Unix(), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisViewRepository.IncrementViews: %v", err)
		return 0, err
	}

	views := incr.Val()
	r.l.Debugf(ctx, "View recorded - deal_id: %s, views: %d", dealID, views)

	return views, nil
}

func (r *redisViewRepository) GetViews(ctx context.Context, dealID string) (*models.DealViewCount, error) {
	pipe := r.cli.Pipeline()
	viewsCmd := pipe.Get(ctx, r.viewsKey(dealID))
	lastCmd := pipe.Get(ctx, r.lastViewedKey(dealID))

	// redis.Nil on either key only means the deal has not been viewed yet
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		r.l.Errorf(ctx, "redisViewRepository.GetViews: %v", err)
		return nil, err
	}

	out := &models.DealViewCount{DealID: dealID}

	views, err := viewsCmd.Int64()
	if err != nil && err != redis.Nil {
		r.l.Errorf(ctx, "redisViewRepository.GetViews: %v", err)
		return nil, err
	}
	out.Views = views

	if ts, err := lastCmd.Int64(); err == nil {
		last := time.Unix(ts, 0).UTC()
		out.LastViewedAt = &last
	}

	return out, nil
}

func (r *redisViewRepository) TopDeals(ctx context.Context, limit int64) ([]models.DealViewCount, error) {
	if limit <= 0 {
		return []models.DealViewCount{}, nil
	}

	res, err := r.cli.ZRevRangeWithScores(ctx, r.leaderboardKey(), 0, limit-1).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisViewRepository.TopDeals: %v", err)
		return nil, err
	}

	out := make([]models.DealViewCount, 0, len(res))
	for _, z := range res {
		dealID, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, models.DealViewCount{
			DealID: dealID,
			Views:  int64(z.Score),
		})
	}

	return out, nil
}

func (r *redisViewRepository) viewsKey(dealID string) string {
	return fmt.Sprintf("dealview:deal:%s:views", dealID)
}

func (r *redisViewRepository) lastViewedKey(dealID string) string {
	return fmt.Sprintf("dealview:deal:%s:last_viewed_at", dealID)
}

func (r *redisViewRepository) leaderboardKey() string {
	return "dealview:leaderboard"
}
