package quota

import (
	"time"

	"github.com/google/uuid"
)

// Record tracks one user's upload consumption for one calendar month.
// Exactly one record exists per (user, month, year); it is created lazily
// with zero usage and its used bytes never decrease within the month.
type Record struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	UsedBytes int64     `json:"used_bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the user-facing view of the current period's usage.
// PercentUsed is a plain ratio and can exceed 100 when concurrent uploads
// overrun the cap.
type Summary struct {
	UsedBytes      int64   `json:"used_bytes"`
	TotalBytes     int64   `json:"total_bytes"`
	RemainingBytes int64   `json:"remaining_bytes"`
	PercentUsed    float64 `json:"percent_used"`
}
