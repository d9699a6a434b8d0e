package app

import (
	"context"
	"fmt"
	"time"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"
	"campaignintel/domain/strategy"
	"campaignintel/internal"
	apperrors "campaignintel/internal/errors"
	"campaignintel/internal/profiling"
	"campaignintel/internal/synthesis"
	"campaignintel/ports"

	"golang.org/x/sync/errgroup"
)

// ProfileResolver resolves constituency profiles; *resolver.Resolver implements it.
type ProfileResolver interface {
	Resolve(ctx context.Context, id core.ConstituencyID) (*constituency.Profile, error)
	KnownIDs(ctx context.Context) ([]core.ConstituencyID, error)
}

// DefaultPortfolioWorkers bounds portfolio fan-out when no limit is configured.
const DefaultPortfolioWorkers = 8

// StrategyService resolves profiles and synthesizes strategies
type StrategyService struct {
	resolver ProfileResolver
	engine   *synthesis.Engine
	repo     ports.StrategyRepository
	logger   *internal.Logger
	workers  int
}

// PortfolioFailure reports one id that could not be synthesized
type PortfolioFailure struct {
	ID    core.ConstituencyID `json:"id"`
	Code  string              `json:"code"`
	Error string              `json:"error"`
}

// Portfolio is a ranked set of strategies plus the ids that failed
type Portfolio struct {
	Ranked   []synthesis.Ranked `json:"ranked"`
	Failures []PortfolioFailure `json:"failures,omitempty"`
}

// NewStrategyService creates a strategy service. repo may be nil to skip persistence.
func NewStrategyService(resolver ProfileResolver, engine *synthesis.Engine, repo ports.StrategyRepository, logger *internal.Logger, workers int) *StrategyService {
	if workers <= 0 {
		workers = DefaultPortfolioWorkers
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &StrategyService{
		resolver: resolver,
		engine:   engine,
		repo:     repo,
		logger:   logger,
		workers:  workers,
	}
}

// Synthesize resolves id and returns its strategy. A persistence failure is
// logged and does not fail the call.
func (s *StrategyService) Synthesize(ctx context.Context, id core.ConstituencyID) (*strategy.WinningStrategy, error) {
	startTime := time.Now()

	profile, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}
	ws, err := s.engine.Synthesize(profile)
	if err != nil {
		return nil, err
	}

	if s.repo != nil {
		snap, err := s.repo.Save(ctx, ws)
		if err != nil {
			s.logger.Warn("[StrategyService] %v", core.NewUnavailableError("strategy repository", err))
		} else {
			s.logger.Debug("[StrategyService] %s snapshot %s (%s)", id, snap.ID, snap.Fingerprint.Short())
		}
	}

	s.logger.Info("[StrategyService] %s synthesized: %s, score %d, win probability %.1f (%dms)",
		id, ws.Status, ws.PriorityScore, ws.WinProbability, time.Since(startTime).Milliseconds())
	return ws, nil
}

// Portfolio synthesizes every id concurrently and ranks the results. An empty
// ids list means every known constituency. Per-id failures are reported in
// the result; only context cancellation fails the whole call.
func (s *StrategyService) Portfolio(ctx context.Context, ids []core.ConstituencyID) (*Portfolio, error) {
	if len(ids) == 0 {
		known, err := s.resolver.KnownIDs(ctx)
		if err != nil {
			return nil, err
		}
		ids = known
	}
	ids = dedupeIDs(ids)

	results := make([]*strategy.WinningStrategy, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ws, err := s.Synthesize(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = err
				return nil
			}
			results[i] = ws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Portfolio{}
	strategies := make([]*strategy.WinningStrategy, 0, len(ids))
	for i, id := range ids {
		if errs[i] != nil {
			s.logger.Warn("[StrategyService] portfolio skipped %s: %v", id, errs[i])
			out.Failures = append(out.Failures, PortfolioFailure{
				ID:    id,
				Code:  apperrors.FromDomain(errs[i]).Code,
				Error: errs[i].Error(),
			})
			continue
		}
		strategies = append(strategies, results[i])
	}
	out.Ranked = synthesis.RankPortfolio(strategies)
	return out, nil
}

// KnownIDs lists every constituency the service can synthesize
func (s *StrategyService) KnownIDs(ctx context.Context) ([]core.ConstituencyID, error) {
	return s.resolver.KnownIDs(ctx)
}

// Coverage resolves every known constituency and reports how much of the
// data behind it is real rather than estimated
func (s *StrategyService) Coverage(ctx context.Context) (*profiling.Report, error) {
	ids, err := s.resolver.KnownIDs(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]*constituency.Profile, len(ids))
	errs := make([]error, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.resolver.Resolve(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = err
				return nil
			}
			profiles[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := make([]*constituency.Profile, 0, len(ids))
	for _, p := range profiles {
		if p != nil {
			resolved = append(resolved, p)
		}
	}
	report := profiling.NewProfiler().Build(resolved)
	for i, err := range errs {
		if err != nil {
			report.AddUnresolved(ids[i], err)
		}
	}
	return report, nil
}

// History returns persisted snapshots for id, newest first
func (s *StrategyService) History(ctx context.Context, id core.ConstituencyID, limit int) ([]*ports.StrategySnapshot, error) {
	if s.repo == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "strategy history is not persisted in this deployment")
	}
	return s.repo.History(ctx, id, limit)
}

func dedupeIDs(ids []core.ConstituencyID) []core.ConstituencyID {
	seen := make(map[core.ConstituencyID]struct{}, len(ids))
	out := make([]core.ConstituencyID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
