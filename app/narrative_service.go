package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"campaignintel/domain/core"
	"campaignintel/domain/strategy"
	"campaignintel/internal"
	"campaignintel/internal/retry"
	"campaignintel/ports"
)

// NarrativeConfig tunes calls to the generative provider
type NarrativeConfig struct {
	Timeout  time.Duration // per attempt
	Retry    retry.Config
	CacheTTL time.Duration // zero disables caching
}

// DefaultNarrativeConfig returns a 20s timeout, three attempts and an hourly cache.
func DefaultNarrativeConfig() NarrativeConfig {
	return NarrativeConfig{
		Timeout:  20 * time.Second,
		Retry:    retry.DefaultConfig(),
		CacheTTL: time.Hour,
	}
}

// NarrativeResult is a generated brief and where it came from
type NarrativeResult struct {
	ConstituencyID core.ConstituencyID `json:"constituency_id"`
	Markdown       string              `json:"markdown"`
	Source         string              `json:"source"`
	Fallback       bool                `json:"fallback"`
	Cached         bool                `json:"cached"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

type narrativeEntry struct {
	result      NarrativeResult
	fingerprint core.Hash
	expires     time.Time
}

// NarrativeService asks the primary generator for prose with a timeout and
// bounded retries, caches successes per constituency and falls back to the
// local template when the provider cannot answer.
type NarrativeService struct {
	primary  ports.NarrativeGenerator
	fallback ports.NarrativeGenerator
	config   NarrativeConfig
	logger   *internal.Logger
	now      func() time.Time

	mu    sync.Mutex
	cache map[core.ConstituencyID]narrativeEntry
}

// NewNarrativeService creates the service. primary may be nil, in which case
// every brief comes from fallback.
func NewNarrativeService(primary, fallback ports.NarrativeGenerator, config NarrativeConfig, logger *internal.Logger) *NarrativeService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &NarrativeService{
		primary:  primary,
		fallback: fallback,
		config:   config,
		logger:   logger,
		now:      time.Now,
		cache:    make(map[core.ConstituencyID]narrativeEntry),
	}
}

// Narrate returns a markdown brief for ws. The strategy is handed to
// generators as a copy; ws itself is never modified.
func (s *NarrativeService) Narrate(ctx context.Context, ws *strategy.WinningStrategy) (*NarrativeResult, error) {
	fp, err := ws.Fingerprint()
	if err != nil {
		return nil, err
	}
	id := ws.ConstituencyID

	if res, ok := s.cached(id, fp); ok {
		return res, nil
	}

	if s.primary != nil {
		text, err := retry.Do(ctx, s.config.Retry, "narrative "+id.String(), s.logger,
			func(ctx context.Context) (string, error) {
				return s.generateOnce(ctx, s.primary, ws)
			})
		if err == nil {
			res := NarrativeResult{
				ConstituencyID: id,
				Markdown:       text,
				Source:         s.primary.Name(),
				GeneratedAt:    s.now().UTC(),
			}
			s.store(id, fp, res)
			return &res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("[NarrativeService] %s unavailable for %s, using %s: %v",
			s.primary.Name(), id, s.fallback.Name(), err)
	}

	text, err := s.fallback.Generate(ctx, ws.Clone())
	if err != nil {
		return nil, fmt.Errorf("fallback narrative for %s: %w", id, err)
	}
	return &NarrativeResult{
		ConstituencyID: id,
		Markdown:       text,
		Source:         s.fallback.Name(),
		Fallback:       s.primary != nil,
		GeneratedAt:    s.now().UTC(),
	}, nil
}

func (s *NarrativeService) generateOnce(ctx context.Context, gen ports.NarrativeGenerator, ws *strategy.WinningStrategy) (string, error) {
	callCtx := ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	text, err := gen.Generate(callCtx, ws.Clone())
	if err == nil {
		return text, nil
	}
	if core.IsUnavailableError(err) || errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}
	return "", retry.Permanent(err)
}

func (s *NarrativeService) cached(id core.ConstituencyID, fp core.Hash) (*NarrativeResult, bool) {
	if s.config.CacheTTL <= 0 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[id]
	if !ok {
		return nil, false
	}
	if entry.fingerprint != fp || !s.now().Before(entry.expires) {
		delete(s.cache, id)
		return nil, false
	}
	res := entry.result
	res.Cached = true
	return &res, true
}

func (s *NarrativeService) store(id core.ConstituencyID, fp core.Hash, res NarrativeResult) {
	if s.config.CacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[id] = narrativeEntry{result: res, fingerprint: fp, expires: s.now().Add(s.config.CacheTTL)}
}
