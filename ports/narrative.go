package ports

import (
	"context"

	"campaignintel/domain/strategy"
)

// NarrativeGenerator turns a structured strategy into free-text markdown.
// Implementations receive a private copy and must not change numeric fields.
type NarrativeGenerator interface {
	Name() string
	Generate(ctx context.Context, ws *strategy.WinningStrategy) (string, error)
}
