package constituency

import (
	"errors"
	"testing"

	"campaignintel/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() *Profile {
	return &Profile{
		ID:             "test-seat",
		Name:           "Test Seat",
		TotalVoters:    100000,
		Classification: Urban,
		Prior: PriorStanding{
			OurPosition:       2,
			WinnerVoteShare:   45,
			RunnerUpVoteShare: 35,
			OurVoteShare:      35,
			MarginPercent:     10,
		},
		Demographics: Demographics{
			Gender: Group{{Name: GenderMale, Percent: 51}, {Name: GenderFemale, Percent: 49}},
		},
		Swing: SwingFactors{AntiIncumbency: 55, PolicyImpact: PolicyImpactLow},
	}
}

func TestValidateAcceptsValidProfile(t *testing.T) {
	require.NoError(t, validProfile().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Profile)
		field  string
	}{
		{"empty id", func(p *Profile) { p.ID = "" }, "id"},
		{"zero voters", func(p *Profile) { p.TotalVoters = 0 }, "total_voters"},
		{"negative voters", func(p *Profile) { p.TotalVoters = -5 }, "total_voters"},
		{"unknown classification", func(p *Profile) { p.Classification = "metro" }, "classification"},
		{"position zero", func(p *Profile) { p.Prior.OurPosition = 0 }, "prior.our_position"},
		{"share over 100", func(p *Profile) { p.Prior.WinnerVoteShare = 101 }, "prior.winner_vote_share"},
		{"negative signal", func(p *Profile) { p.Swing.Unemployment = -1 }, "swing.unemployment"},
		{"shares over 100", func(p *Profile) { p.Prior.WinnerVoteShare, p.Prior.RunnerUpVoteShare = 60, 50 }, "prior"},
		{"runner-up above winner", func(p *Profile) { p.Prior.RunnerUpVoteShare = 50 }, "prior.runner_up_vote_share"},
		{"unknown policy tier", func(p *Profile) { p.Swing.PolicyImpact = "extreme" }, "swing.policy_impact"},
		{"group total off", func(p *Profile) {
			p.Demographics.Caste = Group{{Name: CasteGeneral, Percent: 50}, {Name: CasteOBC, Percent: 30}}
		}, "demographics.caste"},
		{"unnamed category", func(p *Profile) {
			p.Demographics.Age = Group{{Name: "", Percent: 100}}
		}, "demographics.age"},
		{"booth share out of range", func(p *Profile) {
			p.BoothHistory = []BoothRecord{{Booth: 1, OurVoteShare: 120}}
		}, "booth_history[0].our_vote_share"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, core.IsMalformedError(err))

			var fe *core.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestGroupToleranceAllowsRounding(t *testing.T) {
	p := validProfile()
	p.Demographics.Religion = Group{{Name: ReligionHindu, Percent: 80.4}, {Name: ReligionMuslim, Percent: 20.5}}
	assert.NoError(t, p.Validate())
}

func TestPriorStanding(t *testing.T) {
	held := PriorStanding{OurPosition: 1, WinnerVoteShare: 48, RunnerUpVoteShare: 40}
	assert.True(t, held.Held())
	assert.Equal(t, 40.0, held.RivalVoteShare())

	challenger := PriorStanding{OurPosition: 2, WinnerVoteShare: 48, RunnerUpVoteShare: 40}
	assert.False(t, challenger.Held())
	assert.Equal(t, 48.0, challenger.RivalVoteShare())
}

func TestEstimatedFieldsSorted(t *testing.T) {
	p := validProfile()
	p.Provenance = map[string]Source{
		"total_voters":          SourceExact,
		"swing.unemployment":    SourceDefault,
		"demographics.religion": SourceRegional,
	}
	assert.Equal(t, []string{"demographics.religion", "swing.unemployment"}, p.EstimatedFields())
}

func TestRecordOverlay(t *testing.T) {
	voters := 120000
	ai := 62.0
	base := Record{
		ID:        "seat",
		Name:      "Base Name",
		Region:    "north",
		OurParty:  "ours",
		Signals:   &Signals{PolicyImpact: PolicyImpactLow},
		Elections: []ElectionResult{{Year: 2019, WinnerVoteShare: 40}},
	}
	merged := base.Overlay(&Record{
		Name:        "Override Name",
		TotalVoters: &voters,
		Signals:     &Signals{AntiIncumbency: &ai},
	})

	assert.Equal(t, "Override Name", merged.Name)
	assert.Equal(t, "north", merged.Region)
	assert.Equal(t, 120000, *merged.TotalVoters)
	require.NotNil(t, merged.Signals)
	assert.Equal(t, PolicyImpactLow, merged.Signals.PolicyImpact)
	assert.Equal(t, 62.0, *merged.Signals.AntiIncumbency)
	assert.Nil(t, base.Signals.AntiIncumbency, "overlay must not write through to the base record")
	assert.Equal(t, base, base.Overlay(nil))
}

func TestRecordLatest(t *testing.T) {
	r := Record{Elections: []ElectionResult{{Year: 2014}, {Year: 2024}, {Year: 2019}}}
	require.NotNil(t, r.Latest())
	assert.Equal(t, 2024, r.Latest().Year)
	assert.Nil(t, (&Record{}).Latest())
}
