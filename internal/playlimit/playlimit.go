package playlimit

import (
	"context"
	"time"
)

// Limiter grants one play per wallet per UTC calendar day.
type Limiter interface {
	// TryConsume claims today's play. It returns false when the wallet has
	// already played today.
	TryConsume(ctx context.Context, wallet string, now time.Time) (bool, error)
	Status(ctx context.Context, wallet string, now time.Time) (Status, error)
	// Release gives back today's play after a consume whose award failed.
	Release(ctx context.Context, wallet string, now time.Time) error
}

type Status struct {
	Available       bool      `json:"available"`
	NextAvailableAt time.Time `json:"nextAvailableAt"`
}

func dayKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// NextReset is the next UTC midnight after now.
func NextReset(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
