package ports

import (
	"context"
	"time"

	"campaignintel/domain/core"
	"campaignintel/domain/strategy"
)

// StrategySnapshot is a persisted WinningStrategy plus storage metadata. The
// metadata lives outside the strategy so the strategy stays bit-identical
// across syntheses of the same profile.
type StrategySnapshot struct {
	ID          core.SnapshotID           `json:"id"`
	Fingerprint core.Hash                 `json:"fingerprint"`
	CreatedAt   time.Time                 `json:"created_at"`
	Strategy    *strategy.WinningStrategy `json:"strategy"`
}

// StrategyRepository persists strategy snapshots.
type StrategyRepository interface {
	// Save stores a snapshot. Saving a fingerprint already stored for the
	// same constituency returns the existing snapshot instead of a duplicate.
	Save(ctx context.Context, ws *strategy.WinningStrategy) (*StrategySnapshot, error)
	Latest(ctx context.Context, id core.ConstituencyID) (*StrategySnapshot, error)
	History(ctx context.Context, id core.ConstituencyID, limit int) ([]*StrategySnapshot, error)
}
