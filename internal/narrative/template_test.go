package narrative

import (
	"context"
	"testing"

	"campaignintel/domain/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func briefFixture() *strategy.WinningStrategy {
	return &strategy.WinningStrategy{
		ConstituencyID: "lake-view",
		Name:           "Lake View",
		District:       "Lakes",
		Status:         strategy.StatusBattleground,
		PriorityScore:  96,
		PriorityTier:   2,
		WinProbability: 41.2,
		SwingNeeded:    3.5,
		VoteBank:       strategy.VoteBankBreakdown{TotalVoters: 180000, Committed: 56700, Swing: 27000, Convertible: 23625},
		Segments: []strategy.VoterSegment{
			{Name: "OBC community", Size: 73800, ConversionLikelihood: 35, Approach: "Local leaders."},
		},
		GroundPlan: strategy.GroundPlan{
			Booths:    strategy.BoothPlan{Total: 180, Weak: 60, Adequate: 120},
			Workforce: strategy.Workforce{Total: 8700, PageInCharges: 6000},
			Budget:    strategy.Budget{Total: 8100000, Band: "50 lakh-1 crore"},
		},
		Risks:           []strategy.Risk{{Threat: "Rival consolidation", Probability: strategy.LevelMedium, Impact: strategy.LevelHigh, Mitigation: "Track rallies."}},
		Phases:          []strategy.Phase{{Name: "Foundation", StartWeek: 1, EndWeek: 4, Objective: "Build booth committees."}},
		LeadNarrative:   strategy.NarrativeDevelopment,
		EstimatedFields: []string{"demographics.caste"},
		Summary:         "A close contest.",
	}
}

func TestTemplateNarrator_Generate(t *testing.T) {
	n, err := NewTemplateNarrator()
	require.NoError(t, err)
	assert.Equal(t, TemplateName, n.Name())

	text, err := n.Generate(context.Background(), briefFixture())
	require.NoError(t, err)

	assert.Contains(t, text, "## Lake View (Lakes)")
	assert.Contains(t, text, "**Win probability:** 41.2%")
	assert.Contains(t, text, "We need a swing of 3.5%")
	assert.Contains(t, text, "| Committed | 56,700 |")
	assert.Contains(t, text, "**OBC community**: 73,800 voters")
	assert.Contains(t, text, "180 booths, 60 weak")
	assert.Contains(t, text, "Budget 8,100,000 (50 lakh-1 crore)")
	assert.Contains(t, text, "**Rival consolidation** (medium probability, high impact)")
	assert.Contains(t, text, "- **Foundation** (weeks 1-4)")
	assert.Contains(t, text, "Some inputs are estimates: demographics.caste.")
}

func TestTemplateNarrator_HeldNoSegments(t *testing.T) {
	n, err := NewTemplateNarrator()
	require.NoError(t, err)

	ws := briefFixture()
	ws.Status = strategy.StatusHeld
	ws.Segments = nil
	ws.EstimatedFields = nil

	text, err := n.Generate(context.Background(), ws)
	require.NoError(t, err)
	assert.Contains(t, text, "We hold this seat.")
	assert.Contains(t, text, "No demographic segments could be identified")
	assert.NotContains(t, text, "estimates")
}

func TestTemplateNarrator_Deterministic(t *testing.T) {
	n, err := NewTemplateNarrator()
	require.NoError(t, err)

	a, err := n.Generate(context.Background(), briefFixture())
	require.NoError(t, err)
	b, err := n.Generate(context.Background(), briefFixture())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTemplateNarrator_CancelledContext(t *testing.T) {
	n, err := NewTemplateNarrator()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = n.Generate(ctx, briefFixture())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", formatInt(0))
	assert.Equal(t, "999", formatInt(999))
	assert.Equal(t, "1,000", formatInt(1000))
	assert.Equal(t, "8,100,000", formatInt(int64(8100000)))
	assert.Equal(t, "-12,345", formatInt(-12345))
}
