package synthesis

import (
	"math"

	"campaignintel/domain/constituency"
	"campaignintel/domain/strategy"
)

// Booth classification bases.
const (
	BasisHistory = "booth-history"
	BasisProxy   = "profile-proxy"
)

// PlanGroundOperations sizes booths, workforce and budget. Weak booths come
// from BoothHistory when the profile carries it, otherwise from a
// deterministic proxy on our prior vote share.
func PlanGroundOperations(p *constituency.Profile, sc Scoring, w Weights) strategy.GroundPlan {
	booths := ceilDiv(p.TotalVoters, w.Ground.VotersPerBooth)
	return strategy.GroundPlan{
		Booths:    planBooths(p, booths, w.Ground),
		Workforce: planWorkforce(p, booths, sc.Status, w.Ground),
		Budget:    planBudget(p.TotalVoters, sc.PriorityTier, w.Budget),
	}
}

func planBooths(p *constituency.Profile, booths int, g GroundWeights) strategy.BoothPlan {
	var weakFraction float64
	basis := BasisProxy
	if len(p.BoothHistory) > 0 {
		weak := 0
		for _, b := range p.BoothHistory {
			if b.OurVoteShare < g.WeakBoothShare {
				weak++
			}
		}
		weakFraction = float64(weak) / float64(len(p.BoothHistory))
		basis = BasisHistory
	} else {
		weakFraction = 1 - p.Prior.OurVoteShare/g.ProxyParityShare
		weakFraction = math.Min(math.Max(weakFraction, g.ProxyWeakMin), g.ProxyWeakMax)
	}
	weak := min(roundInt(float64(booths)*weakFraction), booths)
	return strategy.BoothPlan{
		Total:    booths,
		Weak:     weak,
		Adequate: booths - weak,
		Basis:    basis,
	}
}

func planWorkforce(p *constituency.Profile, booths int, status strategy.Status, g GroundWeights) strategy.Workforce {
	multiplier := 1.0
	if status == strategy.StatusBattleground {
		multiplier = g.BattlegroundMultiplier
	}
	boothWorkers := int(math.Ceil(float64(booths*g.WorkersPerBooth) * multiplier))
	pages := ceilDiv(p.TotalVoters, g.VotersPerPage)
	return strategy.Workforce{
		PerBooth:      g.WorkersPerBooth,
		Multiplier:    multiplier,
		BoothWorkers:  boothWorkers,
		PageInCharges: pages,
		Total:         boothWorkers + pages,
	}
}

func planBudget(totalVoters, tier int, b BudgetWeights) strategy.Budget {
	rate := b.RatePerVoter[min(max(tier, 1), len(b.RatePerVoter))-1]
	total := int64(math.Round(float64(totalVoters) * rate))

	allocation := make([]strategy.BudgetLine, len(b.Categories))
	var allocated int64
	for i, c := range b.Categories {
		amount := total * int64(c.Percent) / 100
		allocation[i] = strategy.BudgetLine{Category: c.Name, Percent: c.Percent, Amount: amount}
		allocated += amount
	}
	// Integer division leaves a remainder; the last category absorbs it.
	if n := len(allocation); n > 0 {
		allocation[n-1].Amount += total - allocated
	}

	return strategy.Budget{
		PerVoterRate: rate,
		Total:        total,
		BandLow:      int64(math.Round(float64(total) * (1 - b.BandSpread))),
		BandHigh:     int64(math.Round(float64(total) * (1 + b.BandSpread))),
		Band:         budgetBand(total),
		Allocation:   allocation,
	}
}

// budgetBand labels a total in lakh/crore units (1 lakh = 100,000).
func budgetBand(total int64) string {
	switch {
	case total < 1_000_000:
		return "under 10 lakh"
	case total < 5_000_000:
		return "10-50 lakh"
	case total < 10_000_000:
		return "50 lakh-1 crore"
	default:
		return "above 1 crore"
	}
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
