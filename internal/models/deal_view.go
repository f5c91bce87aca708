package models

import "time"

// DealView is one dispatched "deal viewed" record. The tracking side only
// needs the deal id; ViewedAt is stamped when the record leaves the batcher.
type DealView struct {
	DealID   string    `json:"deal_id"`
	ViewedAt time.Time `json:"viewed_at"`
}

type DealViewCount struct {
	DealID       string     `json:"deal_id"`
	Views        int64      `json:"views"`
	LastViewedAt *time.Time `json:"last_viewed_at,omitempty"`
}

// Impression is a mounted card instance whose visibility is being observed.
type Impression struct {
	InstanceID string    `json:"instance_id"`
	DealID     string    `json:"deal_id"`
	Fired      bool      `json:"fired"`
	MountedAt  time.Time `json:"mounted_at"`
	SeenAt     time.Time `json:"seen_at"`
}
