package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"campaignintel/domain/core"
	"campaignintel/domain/strategy"
	"campaignintel/internal"
	"campaignintel/internal/narrative"
	"campaignintel/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Name() string { return "mock-llm" }

func (m *mockGenerator) Generate(ctx context.Context, ws *strategy.WinningStrategy) (string, error) {
	args := m.Called(ctx, ws)
	return args.String(0), args.Error(1)
}

func testNarrativeConfig() NarrativeConfig {
	return NarrativeConfig{
		Timeout:  time.Second,
		Retry:    retry.Config{Attempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond},
		CacheTTL: time.Hour,
	}
}

func narrativeStrategy() *strategy.WinningStrategy {
	return &strategy.WinningStrategy{
		ConstituencyID: "lake-view",
		Name:           "Lake View",
		Status:         strategy.StatusWinnable,
		PriorityScore:  120,
		WinProbability: 68,
		KeyMessages:    []string{"water", "roads"},
		Summary:        "Within reach.",
	}
}

func newNarrativeService(t *testing.T, primary *mockGenerator) *NarrativeService {
	t.Helper()
	fallback, err := narrative.NewTemplateNarrator()
	require.NoError(t, err)
	if primary == nil {
		return NewNarrativeService(nil, fallback, testNarrativeConfig(), internal.NewNopLogger())
	}
	return NewNarrativeService(primary, fallback, testNarrativeConfig(), internal.NewNopLogger())
}

func TestNarrativeService_CachesPrimary(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("## Brief", nil).Once()
	svc := newNarrativeService(t, gen)

	first, err := svc.Narrate(context.Background(), narrativeStrategy())
	require.NoError(t, err)
	assert.Equal(t, "## Brief", first.Markdown)
	assert.Equal(t, "mock-llm", first.Source)
	assert.False(t, first.Cached)
	assert.False(t, first.Fallback)

	second, err := svc.Narrate(context.Background(), narrativeStrategy())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Markdown, second.Markdown)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestNarrativeService_CacheExpires(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("## Brief", nil)
	svc := newNarrativeService(t, gen)

	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	_, err := svc.Narrate(context.Background(), narrativeStrategy())
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	res, err := svc.Narrate(context.Background(), narrativeStrategy())
	require.NoError(t, err)
	assert.False(t, res.Cached)
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestNarrativeService_ChangedStrategyBypassesCache(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("## Brief", nil)
	svc := newNarrativeService(t, gen)

	_, err := svc.Narrate(context.Background(), narrativeStrategy())
	require.NoError(t, err)

	changed := narrativeStrategy()
	changed.PriorityScore = 90
	res, err := svc.Narrate(context.Background(), changed)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestNarrativeService_RetriesThenFallsBack(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).
		Return("", core.NewUnavailableError("mock-llm", errors.New("503")))
	svc := newNarrativeService(t, gen)

	res, err := svc.Narrate(context.Background(), narrativeStrategy())
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, narrative.TemplateName, res.Source)
	assert.Contains(t, res.Markdown, "## Lake View")
	gen.AssertNumberOfCalls(t, "Generate", 3)

	// fallback output is not cached, the provider is asked again next time
	_, err = svc.Narrate(context.Background(), narrativeStrategy())
	require.NoError(t, err)
	gen.AssertNumberOfCalls(t, "Generate", 6)
}

func TestNarrativeService_PermanentErrorSkipsRetry(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("invalid request"))
	svc := newNarrativeService(t, gen)

	res, err := svc.Narrate(context.Background(), narrativeStrategy())
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestNarrativeService_GeneratorCannotMutateStrategy(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ws := args.Get(1).(*strategy.WinningStrategy)
			ws.WinProbability = 99
			ws.KeyMessages[0] = "rewritten"
		}).
		Return("## Brief", nil)
	svc := newNarrativeService(t, gen)

	ws := narrativeStrategy()
	_, err := svc.Narrate(context.Background(), ws)
	require.NoError(t, err)
	assert.Equal(t, 68.0, ws.WinProbability)
	assert.Equal(t, "water", ws.KeyMessages[0])
}

func TestNarrativeService_TemplateOnly(t *testing.T) {
	svc := newNarrativeService(t, nil)

	res, err := svc.Narrate(context.Background(), narrativeStrategy())
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, narrative.TemplateName, res.Source)
}

func TestNarrativeService_CancelledContext(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("", context.Canceled)
	svc := newNarrativeService(t, gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Narrate(ctx, narrativeStrategy())
	assert.ErrorIs(t, err, context.Canceled)
}
