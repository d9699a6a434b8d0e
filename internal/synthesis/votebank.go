package synthesis

import (
	"math"

	"campaignintel/domain/constituency"
	"campaignintel/domain/strategy"
)

// DecomposeVoteBank splits the electorate into committed, swing and
// convertible pools.
//
// Committed is the incumbent-aligned core: the prior winner's share retained at
// RetentionRate. Convertible is the anti-incumbency slice of the strongest
// rival's core. When the rival is the incumbent that slice is carved out of
// Committed, so the three pools never overlap and their sum stays at or below
// (RetentionRate + SwingPoolShare) of the electorate.
func DecomposeVoteBank(p *constituency.Profile, w VoteBankWeights) strategy.VoteBankBreakdown {
	total := float64(p.TotalVoters)
	incumbentCore := roundInt(total * p.Prior.WinnerVoteShare / 100 * w.RetentionRate)
	rivalCore := roundInt(total * p.Prior.RivalVoteShare() / 100 * w.RetentionRate)

	convertible := roundInt(p.Swing.AntiIncumbency * float64(rivalCore) / 100)
	committed := incumbentCore
	if !p.Prior.Held() {
		committed -= convertible
	}

	vb := strategy.VoteBankBreakdown{
		TotalVoters: p.TotalVoters,
		Committed:   max(committed, 0),
		Swing:       roundInt(total * w.SwingPoolShare),
		Convertible: convertible,
	}

	// Rounding on tiny electorates can push the sum one voter over.
	if over := vb.Sum() - vb.TotalVoters; over > 0 {
		cut := min(over, vb.Convertible)
		vb.Convertible -= cut
		vb.Swing = max(vb.Swing-(over-cut), 0)
	}
	return vb
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
