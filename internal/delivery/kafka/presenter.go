package kafka

import "time"

// DealViewedEvent is published once per dispatched view.
type DealViewedEvent struct {
	DealID    string    `json:"deal_id"`
	ViewedAt  time.Time `json:"viewed_at"`
	Timestamp time.Time `json:"timestamp"`
}
