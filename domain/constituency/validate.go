package constituency

import (
	"fmt"
	"math"

	"campaignintel/domain/core"
)

// GroupTolerance is the rounding slack allowed on a demographic group total.
const GroupTolerance = 1.0

// Validate checks every profile invariant and returns the first violation as
// a *core.FieldError wrapping core.ErrMalformedProfile. Nothing is corrected.
func (p *Profile) Validate() error {
	if p.ID.String() == "" {
		return core.NewMalformedError("id", "must not be empty")
	}
	if p.TotalVoters <= 0 {
		return core.NewMalformedError("total_voters", "must be positive, got %d", p.TotalVoters)
	}
	switch p.Classification {
	case Urban, SemiUrban, Rural:
	default:
		return core.NewMalformedError("classification", "unknown value %q", p.Classification)
	}

	if p.Prior.OurPosition < 1 {
		return core.NewMalformedError("prior.our_position", "must be >= 1, got %d", p.Prior.OurPosition)
	}
	percents := []struct {
		field string
		value float64
	}{
		{"prior.winner_vote_share", p.Prior.WinnerVoteShare},
		{"prior.runner_up_vote_share", p.Prior.RunnerUpVoteShare},
		{"prior.our_vote_share", p.Prior.OurVoteShare},
		{"prior.margin_percent", p.Prior.MarginPercent},
		{"swing.anti_incumbency", p.Swing.AntiIncumbency},
		{"swing.welfare_dependency", p.Swing.WelfareDependency},
		{"swing.unemployment", p.Swing.Unemployment},
		{"swing.corruption_perception", p.Swing.CorruptionPerception},
	}
	for _, pc := range percents {
		if err := checkPercent(pc.field, pc.value); err != nil {
			return err
		}
	}
	if sum := p.Prior.WinnerVoteShare + p.Prior.RunnerUpVoteShare; sum > 100+GroupTolerance {
		return core.NewMalformedError("prior", "winner and runner-up shares sum to %.1f", sum)
	}
	if p.Prior.RunnerUpVoteShare > p.Prior.WinnerVoteShare {
		return core.NewMalformedError("prior.runner_up_vote_share", "%.1f exceeds winner share %.1f",
			p.Prior.RunnerUpVoteShare, p.Prior.WinnerVoteShare)
	}
	switch p.Swing.PolicyImpact {
	case PolicyImpactHigh, PolicyImpactMedium, PolicyImpactLow, PolicyImpactNone:
	default:
		return core.NewMalformedError("swing.policy_impact", "unknown tier %q", p.Swing.PolicyImpact)
	}

	for _, ng := range p.Demographics.Groups() {
		if err := ValidateGroup("demographics."+ng.Name, ng.Group); err != nil {
			return err
		}
	}

	for i, h := range p.History {
		field := fmt.Sprintf("history[%d]", i)
		if err := checkPercent(field+".winner_vote_share", h.WinnerVoteShare); err != nil {
			return err
		}
		if err := checkPercent(field+".runner_up_vote_share", h.RunnerUpVoteShare); err != nil {
			return err
		}
	}
	for i, b := range p.BoothHistory {
		if err := checkPercent(fmt.Sprintf("booth_history[%d].our_vote_share", i), b.OurVoteShare); err != nil {
			return err
		}
	}
	return nil
}

// ValidateGroup checks one demographic group: shares in range, total 100±1.
// An empty group is valid.
func ValidateGroup(field string, g Group) error {
	if len(g) == 0 {
		return nil
	}
	for _, s := range g {
		if s.Name == "" {
			return core.NewMalformedError(field, "category with empty name")
		}
		if err := checkPercent(field+"."+s.Name, s.Percent); err != nil {
			return err
		}
	}
	if total := g.Total(); math.Abs(total-100) > GroupTolerance {
		return core.NewMalformedError(field, "sums to %.2f, want 100±%.0f", total, GroupTolerance)
	}
	return nil
}

func checkPercent(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return core.NewMalformedError(field, "%.2f outside [0,100]", v)
	}
	return nil
}
