// Package synthesis turns a resolved constituency profile into a
// WinningStrategy. Every stage is a pure function of its inputs and the
// Weights; the Engine holds no per-call state and is safe for concurrent use.
package synthesis

import (
	"fmt"

	"campaignintel/domain/constituency"
	"campaignintel/domain/strategy"
)

// Engine runs the synthesis pipeline.
type Engine struct {
	weights Weights
	rules   []SegmentRule
}

// NewEngine validates the weights and builds an engine.
func NewEngine(w Weights) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Engine{weights: w, rules: SegmentRules()}, nil
}

// Weights returns the engine's weights by value.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Synthesize validates the profile and runs decomposition, segmentation,
// scoring, ground planning and assembly. A malformed profile is rejected
// before decomposition.
func (e *Engine) Synthesize(p *constituency.Profile) (*strategy.WinningStrategy, error) {
	if p == nil {
		return nil, fmt.Errorf("synthesize: nil profile")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("synthesize %s: %w", p.ID, err)
	}

	voteBank := DecomposeVoteBank(p, e.weights.VoteBank)
	segments := IdentifySegments(p, e.rules, e.weights.Segments)
	scoring := Score(p, e.weights)
	ground := PlanGroundOperations(p, scoring, e.weights)

	return Assemble(Inputs{
		Profile:  p,
		VoteBank: voteBank,
		Segments: segments,
		Scoring:  scoring,
		Ground:   ground,
	}, e.weights), nil
}
