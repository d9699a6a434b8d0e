package synthesis

import (
	"math"
	"sort"

	"campaignintel/domain/constituency"
	"campaignintel/domain/strategy"
)

// Scoring is the scorer's output for one constituency.
type Scoring struct {
	SwingNeeded    float64
	WinProbability float64
	Status         strategy.Status
	PriorityScore  int
	PriorityTier   int
}

// SwingNeeded is the vote-share swing that closes the gap to the prior winner:
// half the gap, since every swung vote moves both totals. Zero for held seats.
func SwingNeeded(prior constituency.PriorStanding) float64 {
	if prior.Held() {
		return 0
	}
	return math.Max(prior.WinnerVoteShare-prior.OurVoteShare, 0) / 2
}

// WinProbability is a monotonic estimate in [Floor, Ceiling]. A held seat
// scores HeldBase plus its margin, capped. A challenger scores
// ChallengerCeiling scaled by SwingScale/(SwingScale+swingNeeded), lifted by
// anti-incumbency above the pivot. It never decreases as our share or
// anti-incumbency rises.
func WinProbability(p *constituency.Profile, w WinProbWeights) float64 {
	var prob float64
	if p.Prior.Held() {
		prob = w.HeldBase + math.Min(p.Prior.MarginPercent, w.HeldMarginCap)
	} else {
		swing := SwingNeeded(p.Prior)
		prob = w.ChallengerCeiling * w.SwingScale / (w.SwingScale + swing)
		prob += math.Max(p.Swing.AntiIncumbency-w.AntiIncumbencyPivot, 0) * w.AntiIncumbencyLift
	}
	prob = math.Min(math.Max(prob, w.Floor), w.Ceiling)
	return math.Round(prob*10) / 10
}

// DeriveStatus maps standing and probability to a status. First place is
// always HELD. Thresholds are strict: exactly WinnableAbove is BATTLEGROUND
// and exactly BattlegroundAbove is DIFFICULT.
func DeriveStatus(held bool, winProbability float64, w WinProbWeights) strategy.Status {
	switch {
	case held:
		return strategy.StatusHeld
	case winProbability > w.WinnableAbove:
		return strategy.StatusWinnable
	case winProbability > w.BattlegroundAbove:
		return strategy.StatusBattleground
	default:
		return strategy.StatusDifficult
	}
}

// PriorityScore is the weighted urgency of a constituency, rounded half away
// from zero.
func PriorityScore(p *constituency.Profile, status strategy.Status, swingNeeded float64, w ScoringWeights) int {
	var score float64
	switch status {
	case strategy.StatusWinnable:
		score = w.WinnableBonus
	case strategy.StatusBattleground:
		score = w.BattlegroundBonus
	case strategy.StatusHeld:
		score = w.HeldBonus
	default:
		score = w.DifficultBonus
	}
	score -= w.SwingPenalty * swingNeeded
	score += w.AntiIncumbencyWeight * p.Swing.AntiIncumbency

	switch p.Swing.PolicyImpact {
	case constituency.PolicyImpactHigh:
		score += w.PolicyHighBonus
	case constituency.PolicyImpactMedium:
		score += w.PolicyMediumBonus
	}
	if p.Notability.NamedIncumbent {
		score += w.NamedIncumbentBonus
	}
	if p.Notability.CapitalDistrict {
		score += w.CapitalDistrictBonus
	}
	return int(math.Round(score))
}

// PriorityTier buckets a score; 1 is the most urgent.
func PriorityTier(score int, w ScoringWeights) int {
	switch {
	case score >= w.Tier1Min:
		return 1
	case score >= w.Tier2Min:
		return 2
	case score >= w.Tier3Min:
		return 3
	default:
		return 4
	}
}

// Score runs the full scorer.
func Score(p *constituency.Profile, w Weights) Scoring {
	swing := SwingNeeded(p.Prior)
	prob := WinProbability(p, w.WinProb)
	status := DeriveStatus(p.Prior.Held(), prob, w.WinProb)
	score := PriorityScore(p, status, swing, w.Scoring)
	return Scoring{
		SwingNeeded:    swing,
		WinProbability: prob,
		Status:         status,
		PriorityScore:  score,
		PriorityTier:   PriorityTier(score, w.Scoring),
	}
}

// Ranked is a strategy's position in a portfolio, 1-based.
type Ranked struct {
	Rank     int                       `json:"rank"`
	Strategy *strategy.WinningStrategy `json:"strategy"`
}

// RankPortfolio orders strategies by priority score, highest first. Equal
// scores fall back to constituency id in lexicographic order so the output is
// the same on every run. The input slice is not reordered.
func RankPortfolio(strategies []*strategy.WinningStrategy) []Ranked {
	sorted := append([]*strategy.WinningStrategy{}, strategies...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PriorityScore != sorted[j].PriorityScore {
			return sorted[i].PriorityScore > sorted[j].PriorityScore
		}
		return sorted[i].ConstituencyID < sorted[j].ConstituencyID
	})
	ranked := make([]Ranked, len(sorted))
	for i, s := range sorted {
		ranked[i] = Ranked{Rank: i + 1, Strategy: s}
	}
	return ranked
}
