package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/vogiaan1904/dealview-tracker/internal/models"
	"github.com/vogiaan1904/dealview-tracker/pkg/util"
)

type mountReq struct {
	InstanceID string `json:"instance_id" binding:"omitempty,max=128"`
	DealID     string `json:"deal_id" binding:"required,max=128"`
}

type visibilityReq struct {
	Ratio *float64 `json:"ratio" binding:"required,gte=0,lte=1"`
}

type trackViewReq struct {
	DealID string `json:"deal_id" binding:"required,max=128"`
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type topDealsReq struct {
	Limit int64 `form:"limit" binding:"omitempty,gte=1,lte=100"`
}

type mountResp struct {
	InstanceID string `json:"instance_id"`
	DealID     string `json:"deal_id"`
	MountedAt  string `json:"mounted_at"`
}

type visibilityResp struct {
	InstanceID string `json:"instance_id"`
	Fired      bool   `json:"fired"`
}

type messageResp struct {
	Message string `json:"message"`
}

type trackViewResp struct {
	DealID  string `json:"deal_id"`
	Message string `json:"message"`
}

type loginResp struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type dealViewsResp struct {
	DealID       string `json:"deal_id"`
	Views        int64  `json:"views"`
	LastViewedAt string `json:"last_viewed_at,omitempty"`
}

type topDealsResp struct {
	Deals []dealViewsResp `json:"deals"`
}

type impressionResp struct {
	InstanceID string `json:"instance_id"`
	DealID     string `json:"deal_id"`
	Fired      bool   `json:"fired"`
	MountedAt  string `json:"mounted_at"`
	SeenAt     string `json:"seen_at"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func newDealViewsResp(c models.DealViewCount) dealViewsResp {
	out := dealViewsResp{
		DealID: c.DealID,
		Views:  c.Views,
	}
	if c.LastViewedAt != nil {
		out.LastViewedAt = util.TimeToISO8601Str(*c.LastViewedAt)
	}
	return out
}

func newImpressionResp(imp models.Impression) impressionResp {
	return impressionResp{
		InstanceID: imp.InstanceID,
		DealID:     imp.DealID,
		Fired:      imp.Fired,
		MountedAt:  util.TimeToISO8601Str(imp.MountedAt),
		SeenAt:     util.TimeToISO8601Str(imp.SeenAt),
	}
}

// bindingDetails turns a binding failure into per-field errors. Malformed
// bodies that never reached validation are reported as a single entry.
func bindingDetails(err error) []fieldError {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []fieldError{{Field: "body", Rule: "malformed"}}
	}

	out := make([]fieldError, 0, len(ves))
	for _, fe := range ves {
		out = append(out, fieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
		})
	}
	return out
}
