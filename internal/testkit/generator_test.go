package testkit

import (
	"context"
	"errors"
	"testing"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"
	"campaignintel/domain/strategy"
	"campaignintel/internal"
	"campaignintel/internal/resolver"
	"campaignintel/internal/synthesis"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	a := NewGenerator(DefaultGeneratorConfig()).Records()
	b := NewGenerator(DefaultGeneratorConfig()).Records()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different records:\n%s", diff)
	}

	cfg := DefaultGeneratorConfig()
	cfg.Seed = 7
	c := NewGenerator(cfg).Records()
	assert.NotEqual(t, a, c)
	assert.Len(t, c, cfg.Count)
	assert.Equal(t, core.ConstituencyID("seat-001"), c[0].ID)
}

func TestGeneratedSeatsSynthesize(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Count = 200
	store := NewMemoryStore(NewGenerator(cfg).Records()...)

	w := synthesis.DefaultWeights()
	engine, err := synthesis.NewEngine(w)
	require.NoError(t, err)
	r := resolver.New(store, nil, internal.NewNopLogger())

	ids, err := r.KnownIDs(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, cfg.Count)

	for _, id := range ids {
		p, err := r.Resolve(context.Background(), id)
		require.NoError(t, err, id)
		ws, err := engine.Synthesize(p)
		require.NoError(t, err, id)

		assert.LessOrEqual(t, ws.VoteBank.Sum(), ws.VoteBank.TotalVoters, id)
		assert.GreaterOrEqual(t, ws.WinProbability, w.WinProb.Floor, id)
		assert.LessOrEqual(t, ws.WinProbability, w.WinProb.Ceiling, id)
		assert.Equal(t, p.Prior.Held(), ws.Status == strategy.StatusHeld, id)
		assert.Equal(t, ws.GroundPlan.Booths.Total, ws.GroundPlan.Booths.Weak+ws.GroundPlan.Booths.Adequate, id)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(&constituency.Record{ID: "b", Region: "north"})
	require.NoError(t, store.UpsertRecord(ctx, &constituency.Record{ID: " A ", Region: "north"}))

	ids, err := store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.ConstituencyID{"a", "b"}, ids)

	recs, err := store.ListByRegion(ctx, "north")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = store.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrUnknownConstituency)

	down := errors.New("down")
	store.SetUnavailable(down)
	_, err = store.GetRecord(ctx, "a")
	assert.ErrorIs(t, err, down)
	store.SetUnavailable(nil)
	_, err = store.GetRecord(ctx, "a")
	assert.NoError(t, err)
}
