package ports

import "context"

// UsageRecorder receives token accounting after each successful LLM call.
// Implementations must not block the caller and must not fail it.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, operation string, usage *UsageData)
}
