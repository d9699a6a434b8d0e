// Package constituency holds the resolved profile of an electoral unit and the
// sparse source records it is assembled from.
package constituency

import (
	"sort"

	"campaignintel/domain/core"

	"gonum.org/v1/gonum/floats"
)

// Classification is the urban/rural character of a constituency.
type Classification string

const (
	Urban     Classification = "urban"
	SemiUrban Classification = "semi-urban"
	Rural     Classification = "rural"
)

// PolicyImpact tiers how strongly recent policy changes are felt locally.
type PolicyImpact string

const (
	PolicyImpactHigh   PolicyImpact = "high"
	PolicyImpactMedium PolicyImpact = "medium"
	PolicyImpactLow    PolicyImpact = "low"
	PolicyImpactNone   PolicyImpact = "none"
)

// Share is one category of a demographic group, in percent.
type Share struct {
	Name    string  `json:"name" yaml:"name"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Group is an ordered demographic breakdown whose shares sum to ~100.
type Group []Share

// Percent returns the share for name, or 0 when the category is absent.
func (g Group) Percent(name string) float64 {
	for _, s := range g {
		if s.Name == name {
			return s.Percent
		}
	}
	return 0
}

// Total sums every share in the group.
func (g Group) Total() float64 {
	percents := make([]float64, len(g))
	for i, s := range g {
		percents[i] = s.Percent
	}
	return floats.Sum(percents)
}

// Demographics is the population breakdown of a constituency.
type Demographics struct {
	Religion Group `json:"religion,omitempty" yaml:"religion,omitempty"`
	Caste    Group `json:"caste,omitempty" yaml:"caste,omitempty"`
	Age      Group `json:"age,omitempty" yaml:"age,omitempty"`
	Gender   Group `json:"gender,omitempty" yaml:"gender,omitempty"`
}

// Groups returns the named groups in a fixed order.
func (d Demographics) Groups() []NamedGroup {
	return []NamedGroup{
		{Name: "religion", Group: d.Religion},
		{Name: "caste", Group: d.Caste},
		{Name: "age", Group: d.Age},
		{Name: "gender", Group: d.Gender},
	}
}

// IsEmpty reports whether no demographic data is present at all.
func (d Demographics) IsEmpty() bool {
	return len(d.Religion) == 0 && len(d.Caste) == 0 && len(d.Age) == 0 && len(d.Gender) == 0
}

// NamedGroup pairs a group with its field name for validation messages.
type NamedGroup struct {
	Name  string
	Group Group
}

// Demographic category names used by the segment rules and defaults.
const (
	CasteGeneral = "general"
	CasteOBC     = "obc"
	CasteSC      = "sc"
	CasteST      = "st"

	ReligionHindu     = "hindu"
	ReligionMuslim    = "muslim"
	ReligionChristian = "christian"
	ReligionSikh      = "sikh"
	ReligionOther     = "other"

	AgeYouth  = "18-35"
	AgeMiddle = "36-55"
	AgeSenior = "56+"

	GenderMale   = "male"
	GenderFemale = "female"
)

// ElectionResult is one historical cycle.
type ElectionResult struct {
	Year              int     `json:"year" yaml:"year"`
	WinningParty      string  `json:"winning_party" yaml:"winning_party"`
	RunnerUpParty     string  `json:"runner_up_party" yaml:"runner_up_party"`
	WinnerVoteShare   float64 `json:"winner_vote_share" yaml:"winner_vote_share"`
	RunnerUpVoteShare float64 `json:"runner_up_vote_share" yaml:"runner_up_vote_share"`
	MarginPercent     float64 `json:"margin_percent" yaml:"margin_percent"`
	Turnout           float64 `json:"turnout,omitempty" yaml:"turnout,omitempty"`
}

// PriorStanding is the most recent result seen from our party's side.
type PriorStanding struct {
	WinningParty      string  `json:"winning_party"`
	OurParty          string  `json:"our_party"`
	OurPosition       int     `json:"our_position"`
	WinnerVoteShare   float64 `json:"winner_vote_share"`
	RunnerUpVoteShare float64 `json:"runner_up_vote_share"`
	OurVoteShare      float64 `json:"our_vote_share"`
	MarginPercent     float64 `json:"margin_percent"`
}

// Held reports whether our party finished first last time.
func (p PriorStanding) Held() bool {
	return p.OurPosition == 1
}

// RivalVoteShare is the share of the strongest party that is not ours.
func (p PriorStanding) RivalVoteShare() float64 {
	if p.Held() {
		return p.RunnerUpVoteShare
	}
	return p.WinnerVoteShare
}

// SwingFactors are the named sentiment signals, each 0-100 except PolicyImpact.
type SwingFactors struct {
	AntiIncumbency       float64      `json:"anti_incumbency"`
	PolicyImpact         PolicyImpact `json:"policy_impact"`
	WelfareDependency    float64      `json:"welfare_dependency"`
	Unemployment         float64      `json:"unemployment"`
	CorruptionPerception float64      `json:"corruption_perception"`
}

// Notability flags strategically notable seats.
type Notability struct {
	NamedIncumbent  bool `json:"named_incumbent"`
	CapitalDistrict bool `json:"capital_district"`
}

// BoothRecord is the historical performance of one polling booth.
type BoothRecord struct {
	Booth        int     `json:"booth" yaml:"booth"`
	OurVoteShare float64 `json:"our_vote_share" yaml:"our_vote_share"`
}

// Source tags where a resolved field came from.
type Source string

const (
	SourceExact    Source = "exact"
	SourceRegional Source = "regional"
	SourceDefault  Source = "default"
)

// Profile is the fully populated view of one constituency. It is built fresh
// per request by the resolver and must not be mutated afterwards.
type Profile struct {
	ID             core.ConstituencyID `json:"id"`
	Name           string              `json:"name"`
	District       string              `json:"district"`
	Region         string              `json:"region"`
	TotalVoters    int                 `json:"total_voters"`
	Classification Classification      `json:"classification"`
	Prior          PriorStanding       `json:"prior"`
	History        []ElectionResult    `json:"history,omitempty"`
	Demographics   Demographics        `json:"demographics"`
	Swing          SwingFactors        `json:"swing"`
	Notability     Notability          `json:"notability"`
	BoothHistory   []BoothRecord       `json:"booth_history,omitempty"`

	// Provenance maps a field path to the tier that supplied it.
	Provenance map[string]Source `json:"provenance,omitempty"`
}

// EstimatedFields lists the fields not taken from an exact-match record, sorted.
func (p *Profile) EstimatedFields() []string {
	fields := make([]string, 0, len(p.Provenance))
	for field, src := range p.Provenance {
		if src != SourceExact {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)
	return fields
}
