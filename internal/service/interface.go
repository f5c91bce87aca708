package service

import (
	"context"

	"github.com/vogiaan1904/dealview-tracker/internal/models"
)

// ImpressionService mirrors the mount lifecycle of deal cards and turns
// their visibility reports into batched deal views.
type ImpressionService interface {
	Mount(ctx context.Context, in MountInput) (*MountOutput, error)
	ReportVisibility(ctx context.Context, in VisibilityInput) (*VisibilityOutput, error)
	Unmount(ctx context.Context, instanceID string) error
	GetImpression(ctx context.Context, instanceID string) (*models.Impression, error)
	TrackView(ctx context.Context, dealID string) error

	// Idle binding sweep
	StartSweeper(ctx context.Context) error
	StopSweeper() error
	GetSweeperStatus() SweeperStatus
}

type StatsService interface {
	RecordView(ctx context.Context, in RecordViewInput) (int64, error)
	GetDealViews(ctx context.Context, dealID string) (*models.DealViewCount, error)
	TopDeals(ctx context.Context, limit int64) ([]models.DealViewCount, error)
}

type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginOutput, error)
	ValidateToken(ctx context.Context, token string) (*AdminClaims, error)
}
