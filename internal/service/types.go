package service

import (
	"time"
)

const (
	ViewSourceBatcher = "batcher"
	ViewSourceKafka   = "kafka"
	ViewSourceGRPC    = "grpc"
)

const (
	DefaultTopDealsLimit int64 = 10
	MaxTopDealsLimit     int64 = 100
)

const RoleAdmin = "admin"

type MountInput struct {
	InstanceID string
	DealID     string
}

type MountOutput struct {
	InstanceID string    `json:"instance_id"`
	DealID     string    `json:"deal_id"`
	MountedAt  time.Time `json:"mounted_at"`
}

type VisibilityInput struct {
	InstanceID string
	Ratio      float64
}

type VisibilityOutput struct {
	InstanceID string `json:"instance_id"`
	Fired      bool   `json:"fired"`
}

type RecordViewInput struct {
	DealID   string
	ViewedAt time.Time
	Source   string
}

type LoginInput struct {
	Username string
	Password string
}

type LoginOutput struct {
	Token     string
	ExpiresAt time.Time
}

type AdminClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

type ImpressionConfig struct {
	BindingTTL    time.Duration
	SweepInterval time.Duration
}

type SweeperStatus struct {
	IsRunning    bool      `json:"is_running"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	LastSwept    time.Time `json:"last_swept,omitempty"`
	TotalEvicted int64     `json:"total_evicted"`
}
