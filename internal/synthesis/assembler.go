package synthesis

import (
	"fmt"
	"strings"

	"campaignintel/domain/constituency"
	"campaignintel/domain/strategy"
)

// Inputs bundles the stage outputs the assembler composes.
type Inputs struct {
	Profile  *constituency.Profile
	VoteBank strategy.VoteBankBreakdown
	Segments []strategy.VoterSegment
	Scoring  Scoring
	Ground   strategy.GroundPlan
}

// Assemble composes stage outputs into a WinningStrategy using fixed template
// rules. It does no I/O and keeps no state.
func Assemble(in Inputs, w Weights) *strategy.WinningStrategy {
	p := in.Profile
	ranked := RankSegments(in.Segments)
	narrative := leadNarrative(p, w.Conversion)

	ws := &strategy.WinningStrategy{
		ConstituencyID:  p.ID,
		Name:            p.Name,
		District:        p.District,
		Region:          p.Region,
		Status:          in.Scoring.Status,
		PriorityScore:   in.Scoring.PriorityScore,
		PriorityTier:    in.Scoring.PriorityTier,
		WinProbability:  in.Scoring.WinProbability,
		SwingNeeded:     in.Scoring.SwingNeeded,
		VoteBank:        in.VoteBank,
		Segments:        ranked,
		GroundPlan:      in.Ground,
		ConversionPaths: conversionPaths(p, ranked, w.Conversion),
		Risks:           riskRegister(p, in),
		Phases:          phases(in, ranked, narrative),
		LeadNarrative:   narrative,
		KeyMessages:     keyMessages(narrative, ranked),
	}
	if est := p.EstimatedFields(); len(est) > 0 {
		ws.EstimatedFields = est
	}
	ws.Summary = summary(ws)
	return ws
}

func leadNarrative(p *constituency.Profile, c ConversionWeights) strategy.Narrative {
	if p.Swing.AntiIncumbency > c.ChangeNarrative {
		return strategy.NarrativeChange
	}
	return strategy.NarrativeDevelopment
}

// conversionPaths assumes a segment currently votes for us at our constituency
// share and can move at most Ceiling of the remainder, scaled by likelihood.
func conversionPaths(p *constituency.Profile, ranked []strategy.VoterSegment, c ConversionWeights) []strategy.ConversionPath {
	n := min(len(ranked), c.MaxPaths)
	paths := make([]strategy.ConversionPath, 0, n)
	for _, seg := range ranked[:n] {
		current := roundInt(float64(seg.Size) * p.Prior.OurVoteShare / 100)
		gain := roundInt(float64(seg.Size-current) * seg.ConversionLikelihood / 100 * c.Ceiling)
		paths = append(paths, strategy.ConversionPath{
			Segment:      seg.Name,
			CurrentVotes: current,
			TargetVotes:  current + gain,
			Strategy:     seg.Approach,
			Confidence:   confidence(seg.ConversionLikelihood, c),
		})
	}
	return paths
}

func confidence(likelihood float64, c ConversionWeights) strategy.Level {
	switch {
	case likelihood >= c.HighConfidence:
		return strategy.LevelHigh
	case likelihood >= c.MediumConfidence:
		return strategy.LevelMedium
	default:
		return strategy.LevelLow
	}
}

func riskRegister(p *constituency.Profile, in Inputs) []strategy.Risk {
	risks := []strategy.Risk{}
	add := func(threat string, prob, impact strategy.Level, mitigation string) {
		risks = append(risks, strategy.Risk{Threat: threat, Probability: prob, Impact: impact, Mitigation: mitigation})
	}

	ai := p.Swing.AntiIncumbency
	if p.Prior.Held() && ai > 50 {
		prob := strategy.LevelMedium
		if ai > 70 {
			prob = strategy.LevelHigh
		}
		add("Anti-incumbency eroding the committed base", prob, strategy.LevelHigh,
			"Publish a delivery report card and consider refreshing the candidate")
	}
	if in.Scoring.SwingNeeded > 10 {
		add("Rival core too large to overturn in one cycle", strategy.LevelHigh, strategy.LevelHigh,
			"Target the convertible pool first and negotiate alliance transfers")
	}
	if p.Prior.MarginPercent < 5 {
		add("Narrow-margin volatility", strategy.LevelHigh, strategy.LevelHigh,
			"Concentrate polling-day resources on turnout in adequate booths")
	}
	if b := in.Ground.Booths; b.Total > 0 && float64(b.Weak)/float64(b.Total) > 0.4 {
		add("Organisational gaps in weak booths", strategy.LevelMedium, strategy.LevelHigh,
			fmt.Sprintf("Deploy senior organisers to the %d weak booths before the outreach phase", b.Weak))
	}
	if p.Swing.CorruptionPerception > 60 {
		add("Corruption narrative targeting the campaign", strategy.LevelMedium, strategy.LevelMedium,
			"Prepare a rapid-response cell with documented rebuttals")
	}
	if p.Swing.Unemployment > 60 {
		add("Youth unemployment anger", strategy.LevelMedium, strategy.LevelHigh,
			"Lead with a verifiable local employment charter")
	}
	add("Rival consolidation behind a single candidate", strategy.LevelMedium, strategy.LevelMedium,
		"Track alliance talks and keep second-preference outreach open")
	if est := p.EstimatedFields(); len(est) > 0 {
		add("Plan rests on estimated inputs", strategy.LevelMedium, strategy.LevelMedium,
			"Verify estimated fields: "+strings.Join(est, ", "))
	}
	return risks
}

func phases(in Inputs, ranked []strategy.VoterSegment, narrative strategy.Narrative) []strategy.Phase {
	booths := in.Ground.Booths
	outreach := []string{}
	for _, seg := range ranked[:min(len(ranked), 3)] {
		outreach = append(outreach, fmt.Sprintf("Run %s outreach: %s", strings.ToLower(seg.Name), seg.Approach))
	}
	if len(outreach) == 0 {
		outreach = append(outreach, "Run general door-to-door outreach across all booths")
	}
	theme := "development record and next-term commitments"
	if narrative == strategy.NarrativeChange {
		theme = "the case for change against the incumbent"
	}

	return []strategy.Phase{
		{
			Name: "Foundation", StartWeek: 1, EndWeek: 4,
			Objective: "Build the booth organisation and verify voter lists",
			Activities: []string{
				fmt.Sprintf("Constitute committees in all %d booths", booths.Total),
				fmt.Sprintf("Appoint %d page in-charges", in.Ground.Workforce.PageInCharges),
				fmt.Sprintf("Prioritise the %d weak booths for senior organisers", booths.Weak),
			},
		},
		{
			Name: "Outreach", StartWeek: 5, EndWeek: 8,
			Objective:  "Move the convertible and swing pools",
			Activities: outreach,
		},
		{
			Name: "Mobilisation", StartWeek: 9, EndWeek: 11,
			Objective: "Amplify the lead narrative",
			Activities: []string{
				"Hold rallies and street-corner meetings on " + theme,
				fmt.Sprintf("Scale the workforce to %d volunteers", in.Ground.Workforce.Total),
			},
		},
		{
			Name: "Polling", StartWeek: 12, EndWeek: 12,
			Objective: "Convert support into turnout",
			Activities: []string{
				"Issue voter slips and arrange transport in every booth",
				"Staff booth agents and run an hourly turnout tracker",
			},
		},
	}
}

func keyMessages(narrative strategy.Narrative, ranked []strategy.VoterSegment) []string {
	msgs := []string{}
	if narrative == strategy.NarrativeChange {
		msgs = append(msgs, "Time for change: the incumbent has not delivered")
	} else {
		msgs = append(msgs, "Continuity of development with sharper local delivery")
	}
	for _, seg := range ranked[:min(len(ranked), 3)] {
		msgs = append(msgs, fmt.Sprintf("On %s: speak to %s", seg.KeyIssues[0], strings.ToLower(seg.Name)))
	}
	return msgs
}

// summary is the local one-paragraph text used when no narrative service is reachable.
func summary(ws *strategy.WinningStrategy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is rated %s (tier %d, priority score %d) with an estimated win probability of %.1f%%.",
		displayName(ws), ws.Status, ws.PriorityTier, ws.PriorityScore, ws.WinProbability)
	if ws.SwingNeeded > 0 {
		fmt.Fprintf(&b, " A swing of %.1f points is needed.", ws.SwingNeeded)
	}
	fmt.Fprintf(&b, " Committed %d, swing %d and convertible %d voters.",
		ws.VoteBank.Committed, ws.VoteBank.Swing, ws.VoteBank.Convertible)
	if len(ws.Segments) > 0 {
		fmt.Fprintf(&b, " Lead segment: %s.", ws.Segments[0].Name)
	}
	fmt.Fprintf(&b, " Lead narrative: %s.", ws.LeadNarrative)
	return b.String()
}

func displayName(ws *strategy.WinningStrategy) string {
	if ws.Name != "" {
		return ws.Name
	}
	return ws.ConstituencyID.String()
}
