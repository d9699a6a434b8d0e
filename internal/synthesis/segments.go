package synthesis

import (
	"sort"

	"campaignintel/domain/constituency"
	"campaignintel/domain/strategy"
)

// SegmentRule is one row of the segment lookup table. Match returns the
// percentage of the electorate the segment covers; zero means no segment.
// Likelihood is a fixed heuristic constant, not an estimate learned from data.
// Threshold rules fire only when the value is strictly above the threshold.
type SegmentRule struct {
	ID         string
	Name       string
	Alignment  string
	Likelihood float64
	KeyIssues  []string
	Approach   string
	Match      func(p *constituency.Profile, t SegmentThresholds) float64
}

// SegmentRules returns the lookup table in evaluation order. Output order of
// IdentifySegments follows this order, so it must stay fixed.
func SegmentRules() []SegmentRule {
	return []SegmentRule{
		{
			ID:         "sc-community",
			Name:       "Scheduled Caste voters",
			Alignment:  "fragmented",
			Likelihood: 45,
			KeyIssues:  []string{"reservation safeguards", "welfare scheme access", "housing and land titles"},
			Approach:   "Mohalla meetings led by local SC leaders, paired with scheme enrolment camps",
			Match:      casteShare(constituency.CasteSC),
		},
		{
			ID:         "st-community",
			Name:       "Scheduled Tribe voters",
			Alignment:  "fragmented",
			Likelihood: 40,
			KeyIssues:  []string{"forest rights", "road and mobile connectivity", "tribal welfare delivery"},
			Approach:   "Village-level outreach through tribal councils with a forest-rights facilitation desk",
			Match:      casteShare(constituency.CasteST),
		},
		{
			ID:         "obc-community",
			Name:       "OBC voters",
			Alignment:  "contested",
			Likelihood: 35,
			KeyIssues:  []string{"representation in local bodies", "small business credit", "education access"},
			Approach:   "Caste-association conventions and visible OBC faces on the candidate slate",
			Match:      casteShare(constituency.CasteOBC),
		},
		{
			ID:         "muslim-community",
			Name:       "Muslim voters",
			Alignment:  "consolidated",
			Likelihood: 30,
			KeyIssues:  []string{"security and law and order", "livelihoods", "education"},
			Approach:   "Trusted community intermediaries and a livelihoods-first message",
			Match:      religionShare(constituency.ReligionMuslim),
		},
		{
			ID:         "christian-community",
			Name:       "Christian voters",
			Alignment:  "swing",
			Likelihood: 35,
			KeyIssues:  []string{"institution protection", "education", "health services"},
			Approach:   "Engagement through church and school networks on service delivery",
			Match:      religionShare(constituency.ReligionChristian),
		},
		{
			ID:         "urban-middle-class",
			Name:       "Urban middle class",
			Alignment:  "swing",
			Likelihood: 40,
			KeyIssues:  []string{"traffic and civic infrastructure", "cost of living", "governance quality"},
			Approach:   "Resident-welfare-association meetings and a targeted digital campaign",
			Match: func(p *constituency.Profile, t SegmentThresholds) float64 {
				switch p.Classification {
				case constituency.Urban:
					return t.UrbanMiddleClass
				case constituency.SemiUrban:
					return t.SemiUrbanMiddleClass
				}
				return 0
			},
		},
		{
			ID:         "rural-farmers",
			Name:       "Farming households",
			Alignment:  "leaning incumbent",
			Likelihood: 35,
			KeyIssues:  []string{"crop prices and MSP", "irrigation", "input costs"},
			Approach:   "Kisan chaupals in every panchayat with a crop-price grievance tracker",
			Match: func(p *constituency.Profile, t SegmentThresholds) float64 {
				if p.Classification == constituency.Rural {
					return t.RuralFarmHouseholds
				}
				return 0
			},
		},
		{
			ID:         "youth",
			Name:       "First-time and young voters",
			Alignment:  "undecided",
			Likelihood: 50,
			KeyIssues:  []string{"jobs", "skilling", "exam transparency"},
			Approach:   "Campus and social-media outreach with young local ambassadors",
			Match: func(p *constituency.Profile, t SegmentThresholds) float64 {
				if youth := p.Demographics.Age.Percent(constituency.AgeYouth); youth > t.YouthPercent {
					return youth
				}
				return 0
			},
		},
		{
			ID:         "women",
			Name:       "Women voters",
			Alignment:  "swing",
			Likelihood: 45,
			KeyIssues:  []string{"safety", "price rise", "direct benefit transfers"},
			Approach:   "Self-help-group meetings and door-to-door women's teams",
			Match: func(p *constituency.Profile, t SegmentThresholds) float64 {
				if women := p.Demographics.Gender.Percent(constituency.GenderFemale); women > t.WomenPercent {
					return women
				}
				return 0
			},
		},
		{
			ID:         "welfare-beneficiaries",
			Name:       "Welfare beneficiaries",
			Alignment:  "leaning incumbent",
			Likelihood: 55,
			KeyIssues:  []string{"ration and pension continuity", "scheme leakage", "payment delays"},
			Approach:   "Beneficiary contact programme with guarantees of scheme continuity",
			Match: func(p *constituency.Profile, t SegmentThresholds) float64 {
				if p.Swing.WelfareDependency > t.WelfareDependency {
					return p.Swing.WelfareDependency
				}
				return 0
			},
		},
		{
			ID:         "unemployed-youth",
			Name:       "Unemployed youth",
			Alignment:  "disaffected",
			Likelihood: 50,
			KeyIssues:  []string{"local jobs", "recruitment delays", "migration"},
			Approach:   "Job-fair pledges and a verifiable local employment charter",
			Match: func(p *constituency.Profile, t SegmentThresholds) float64 {
				if p.Swing.Unemployment <= t.Unemployment {
					return 0
				}
				return p.Demographics.Age.Percent(constituency.AgeYouth) * p.Swing.Unemployment / 100
			},
		},
		{
			ID:         "anti-incumbency-floaters",
			Name:       "Disillusioned incumbent voters",
			Alignment:  "leaning opponent",
			Likelihood: 60,
			KeyIssues:  []string{"unkept promises", "local representative access", "corruption"},
			Approach:   "Report-card campaign contrasting promises with delivery",
			Match: func(p *constituency.Profile, t SegmentThresholds) float64 {
				if p.Prior.Held() || p.Swing.AntiIncumbency <= t.AntiIncumbency {
					return 0
				}
				return p.Swing.AntiIncumbency / 4
			},
		},
	}
}

func casteShare(name string) func(*constituency.Profile, SegmentThresholds) float64 {
	return func(p *constituency.Profile, _ SegmentThresholds) float64 {
		return p.Demographics.Caste.Percent(name)
	}
}

func religionShare(name string) func(*constituency.Profile, SegmentThresholds) float64 {
	return func(p *constituency.Profile, _ SegmentThresholds) float64 {
		return p.Demographics.Religion.Percent(name)
	}
}

// IdentifySegments evaluates rules in order, each adding at most one segment.
// A profile with no demographics and no signals yields an empty, non-nil slice.
func IdentifySegments(p *constituency.Profile, rules []SegmentRule, t SegmentThresholds) []strategy.VoterSegment {
	segments := []strategy.VoterSegment{}
	for _, rule := range rules {
		pct := rule.Match(p, t)
		if pct <= 0 {
			continue
		}
		size := roundInt(float64(p.TotalVoters) * pct / 100)
		if size <= 0 {
			continue
		}
		segments = append(segments, strategy.VoterSegment{
			Rule:                 rule.ID,
			Name:                 rule.Name,
			Size:                 size,
			Alignment:            rule.Alignment,
			ConversionLikelihood: rule.Likelihood,
			KeyIssues:            append([]string{}, rule.KeyIssues...),
			Approach:             rule.Approach,
		})
	}
	return segments
}

// RankSegments returns a copy ordered by expected conversions, highest first.
// Ties keep rule order.
func RankSegments(segments []strategy.VoterSegment) []strategy.VoterSegment {
	ranked := append([]strategy.VoterSegment{}, segments...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ExpectedConversions() > ranked[j].ExpectedConversions()
	})
	return ranked
}
