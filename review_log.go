package cadence

import "time"

// ReviewLog records a single review event for an item.
type ReviewLog struct {
	ItemID         string    `json:"item_id"`
	Grade          Grade     `json:"grade"`
	ReviewedAt     time.Time `json:"reviewed_at"`
	DurationMillis *int      `json:"duration_ms,omitempty"` // optional.
}
