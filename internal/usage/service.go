// Package usage keeps running token totals for calls to the generative
// narrative providers.
package usage

import (
	"context"
	"sync"
	"time"

	"campaignintel/internal"
	"campaignintel/ports"
)

// Tracker aggregates token usage in memory. It is safe for concurrent use.
type Tracker struct {
	logger *internal.Logger
	since  time.Time

	mu          sync.Mutex
	overall     Totals
	byModel     map[string]Totals
	byOperation map[string]Totals
	rejected    int
}

var _ ports.UsageRecorder = (*Tracker)(nil)

// NewTracker creates an empty tracker
func NewTracker(logger *internal.Logger) *Tracker {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Tracker{
		logger:      logger,
		since:       time.Now().UTC(),
		byModel:     make(map[string]Totals),
		byOperation: make(map[string]Totals),
	}
}

// RecordUsage adds one call. Nil or negative counts are logged and dropped;
// tracking problems never fail the caller.
func (t *Tracker) RecordUsage(_ context.Context, operation string, u *ports.UsageData) {
	if u == nil {
		t.logger.Warn("[Usage] nil usage data for %s", operation)
		t.reject()
		return
	}
	if u.PromptTokens < 0 || u.CompletionTokens < 0 || u.TotalTokens < 0 {
		t.logger.Warn("[Usage] invalid token counts for %s: %+v", operation, *u)
		t.reject()
		return
	}

	total := u.TotalTokens
	if total == 0 {
		total = u.PromptTokens + u.CompletionTokens
	}
	key := u.Provider + "/" + u.Model

	t.mu.Lock()
	defer t.mu.Unlock()
	t.overall.add(u.PromptTokens, u.CompletionTokens, total)
	m := t.byModel[key]
	m.add(u.PromptTokens, u.CompletionTokens, total)
	t.byModel[key] = m
	o := t.byOperation[operation]
	o.add(u.PromptTokens, u.CompletionTokens, total)
	t.byOperation[operation] = o

	t.logger.Debug("[Usage] %s via %s: %d tokens", operation, key, total)
}

func (t *Tracker) reject() {
	t.mu.Lock()
	t.rejected++
	t.mu.Unlock()
}

// Summary returns a copy of the current totals
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		Since:       t.since.Format(time.RFC3339),
		Overall:     t.overall,
		ByModel:     make(map[string]Totals, len(t.byModel)),
		ByOperation: make(map[string]Totals, len(t.byOperation)),
		Rejected:    t.rejected,
	}
	for k, v := range t.byModel {
		s.ByModel[k] = v
	}
	for k, v := range t.byOperation {
		s.ByOperation[k] = v
	}
	return s
}
