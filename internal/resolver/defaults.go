package resolver

import "campaignintel/domain/constituency"

// Global defaults: the last fallback tier.
const (
	DefaultTotalVoters       = 180000
	DefaultClassification    = constituency.Rural
	DefaultWinnerVoteShare   = 42.0
	DefaultRunnerUpVoteShare = 35.0
	DefaultThirdPlaceShare   = 15.0
	DefaultOurPosition       = 2
	DefaultOurParty          = "our party"

	DefaultAntiIncumbency       = 50.0
	DefaultPolicyImpact         = constituency.PolicyImpactLow
	DefaultWelfareDependency    = 40.0
	DefaultUnemployment         = 40.0
	DefaultCorruptionPerception = 40.0
)

// DefaultDemographics returns a fresh copy of the national-average breakdown.
func DefaultDemographics() constituency.Demographics {
	return constituency.Demographics{
		Religion: constituency.Group{
			{Name: constituency.ReligionHindu, Percent: 80},
			{Name: constituency.ReligionMuslim, Percent: 14},
			{Name: constituency.ReligionChristian, Percent: 2.3},
			{Name: constituency.ReligionSikh, Percent: 1.7},
			{Name: constituency.ReligionOther, Percent: 2},
		},
		Caste: constituency.Group{
			{Name: constituency.CasteGeneral, Percent: 34},
			{Name: constituency.CasteOBC, Percent: 41},
			{Name: constituency.CasteSC, Percent: 16},
			{Name: constituency.CasteST, Percent: 9},
		},
		Age: constituency.Group{
			{Name: constituency.AgeYouth, Percent: 38},
			{Name: constituency.AgeMiddle, Percent: 37},
			{Name: constituency.AgeSenior, Percent: 25},
		},
		Gender: constituency.Group{
			{Name: constituency.GenderMale, Percent: 51.5},
			{Name: constituency.GenderFemale, Percent: 48.5},
		},
	}
}
