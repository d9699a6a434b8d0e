package constituency

import "campaignintel/domain/core"

// Record is a sparse source record as held by the record store or an
// overrides file. Every field except ID may be absent.
type Record struct {
	ID             core.ConstituencyID `json:"id" yaml:"id"`
	Name           string              `json:"name,omitempty" yaml:"name,omitempty"`
	District       string              `json:"district,omitempty" yaml:"district,omitempty"`
	Region         string              `json:"region,omitempty" yaml:"region,omitempty"`
	TotalVoters    *int                `json:"total_voters,omitempty" yaml:"total_voters,omitempty"`
	Classification Classification      `json:"classification,omitempty" yaml:"classification,omitempty"`

	OurParty    string           `json:"our_party,omitempty" yaml:"our_party,omitempty"`
	OurPosition *int             `json:"our_position,omitempty" yaml:"our_position,omitempty"`
	OurShare    *float64         `json:"our_vote_share,omitempty" yaml:"our_vote_share,omitempty"`
	Elections   []ElectionResult `json:"elections,omitempty" yaml:"elections,omitempty"`

	Demographics Demographics `json:"demographics,omitempty" yaml:"demographics,omitempty"`
	Signals      *Signals     `json:"signals,omitempty" yaml:"signals,omitempty"`

	NamedIncumbent  *bool         `json:"named_incumbent,omitempty" yaml:"named_incumbent,omitempty"`
	CapitalDistrict *bool         `json:"capital_district,omitempty" yaml:"capital_district,omitempty"`
	BoothHistory    []BoothRecord `json:"booth_history,omitempty" yaml:"booth_history,omitempty"`
}

// Signals is the optional sentiment/news-derived signal set.
type Signals struct {
	AntiIncumbency       *float64     `json:"anti_incumbency,omitempty" yaml:"anti_incumbency,omitempty"`
	PolicyImpact         PolicyImpact `json:"policy_impact,omitempty" yaml:"policy_impact,omitempty"`
	WelfareDependency    *float64     `json:"welfare_dependency,omitempty" yaml:"welfare_dependency,omitempty"`
	Unemployment         *float64     `json:"unemployment,omitempty" yaml:"unemployment,omitempty"`
	CorruptionPerception *float64     `json:"corruption_perception,omitempty" yaml:"corruption_perception,omitempty"`
}

// Latest returns the most recent election by year, or nil.
func (r *Record) Latest() *ElectionResult {
	if len(r.Elections) == 0 {
		return nil
	}
	latest := &r.Elections[0]
	for i := range r.Elections {
		if r.Elections[i].Year > latest.Year {
			latest = &r.Elections[i]
		}
	}
	return latest
}

// Overlay returns a copy of r with every field set in o taking precedence.
func (r Record) Overlay(o *Record) Record {
	if o == nil {
		return r
	}
	if o.Name != "" {
		r.Name = o.Name
	}
	if o.District != "" {
		r.District = o.District
	}
	if o.Region != "" {
		r.Region = o.Region
	}
	if o.TotalVoters != nil {
		r.TotalVoters = o.TotalVoters
	}
	if o.Classification != "" {
		r.Classification = o.Classification
	}
	if o.OurParty != "" {
		r.OurParty = o.OurParty
	}
	if o.OurPosition != nil {
		r.OurPosition = o.OurPosition
	}
	if o.OurShare != nil {
		r.OurShare = o.OurShare
	}
	if len(o.Elections) > 0 {
		r.Elections = o.Elections
	}
	if len(o.Demographics.Religion) > 0 {
		r.Demographics.Religion = o.Demographics.Religion
	}
	if len(o.Demographics.Caste) > 0 {
		r.Demographics.Caste = o.Demographics.Caste
	}
	if len(o.Demographics.Age) > 0 {
		r.Demographics.Age = o.Demographics.Age
	}
	if len(o.Demographics.Gender) > 0 {
		r.Demographics.Gender = o.Demographics.Gender
	}
	if o.Signals != nil {
		merged := Signals{}
		if r.Signals != nil {
			merged = *r.Signals
		}
		if o.Signals.AntiIncumbency != nil {
			merged.AntiIncumbency = o.Signals.AntiIncumbency
		}
		if o.Signals.PolicyImpact != "" {
			merged.PolicyImpact = o.Signals.PolicyImpact
		}
		if o.Signals.WelfareDependency != nil {
			merged.WelfareDependency = o.Signals.WelfareDependency
		}
		if o.Signals.Unemployment != nil {
			merged.Unemployment = o.Signals.Unemployment
		}
		if o.Signals.CorruptionPerception != nil {
			merged.CorruptionPerception = o.Signals.CorruptionPerception
		}
		r.Signals = &merged
	}
	if o.NamedIncumbent != nil {
		r.NamedIncumbent = o.NamedIncumbent
	}
	if o.CapitalDistrict != nil {
		r.CapitalDistrict = o.CapitalDistrict
	}
	if len(o.BoothHistory) > 0 {
		r.BoothHistory = o.BoothHistory
	}
	return r
}
