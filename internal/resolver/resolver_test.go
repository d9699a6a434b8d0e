package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"
	"campaignintel/domain/strategy"
	"campaignintel/internal"
	"campaignintel/internal/synthesis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	records map[core.ConstituencyID]*constituency.Record
	err     error
}

func (f *fakeStore) GetRecord(_ context.Context, id core.ConstituencyID) (*constituency.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, core.NewUnknownConstituencyError(id)
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) ListByRegion(_ context.Context, region string) ([]*constituency.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*constituency.Record
	for _, rec := range f.records {
		if rec.Region == region {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) ListIDs(context.Context) ([]core.ConstituencyID, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]core.ConstituencyID, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeStore) UpsertRecord(_ context.Context, rec *constituency.Record) error {
	f.records[rec.ID] = rec
	return nil
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool { return &v }

func newTestResolver(store *fakeStore, overrides Overrides) *Resolver {
	if store == nil {
		return New(nil, overrides, internal.NewNopLogger())
	}
	return New(store, overrides, internal.NewNopLogger())
}

func TestResolveExactRecord(t *testing.T) {
	store := &fakeStore{records: map[core.ConstituencyID]*constituency.Record{
		"seat-a": {
			ID:             "seat-a",
			Name:           "Seat A",
			Region:         "north",
			TotalVoters:    intPtr(210000),
			Classification: constituency.SemiUrban,
			OurParty:       "ours",
			Elections: []constituency.ElectionResult{
				{Year: 2019, WinningParty: "ours", RunnerUpParty: "theirs", WinnerVoteShare: 44, RunnerUpVoteShare: 38},
				{Year: 2024, WinningParty: "theirs", RunnerUpParty: "ours", WinnerVoteShare: 47, RunnerUpVoteShare: 41, MarginPercent: 6},
			},
			Signals:        &constituency.Signals{AntiIncumbency: floatPtr(64), PolicyImpact: constituency.PolicyImpactMedium},
			NamedIncumbent: boolPtr(true),
		},
	}}

	p, err := newTestResolver(store, nil).Resolve(context.Background(), "seat-a")
	require.NoError(t, err)

	assert.Equal(t, 210000, p.TotalVoters)
	assert.Equal(t, constituency.SemiUrban, p.Classification)
	assert.Equal(t, 2, p.Prior.OurPosition, "runner-up party in the latest election")
	assert.Equal(t, 47.0, p.Prior.WinnerVoteShare)
	assert.Equal(t, 41.0, p.Prior.OurVoteShare)
	assert.Equal(t, 6.0, p.Prior.MarginPercent)
	assert.Equal(t, 2024, p.History[0].Year)
	assert.Equal(t, 64.0, p.Swing.AntiIncumbency)
	assert.True(t, p.Notability.NamedIncumbent)
	assert.Equal(t, constituency.SourceExact, p.Provenance[FieldVoteShares])
	assert.Equal(t, constituency.SourceDefault, p.Provenance[FieldReligion])
	assert.Contains(t, p.EstimatedFields(), FieldUnemployment)
	assert.NotContains(t, p.EstimatedFields(), FieldAntiIncumbency)
}

func TestResolveOverridesWinOverStore(t *testing.T) {
	store := &fakeStore{records: map[core.ConstituencyID]*constituency.Record{
		"seat-a": {ID: "seat-a", Name: "Store Name", TotalVoters: intPtr(100000)},
	}}
	overrides := Overrides{"seat-a": {ID: "seat-a", Name: "Override Name"}}

	p, err := newTestResolver(store, overrides).Resolve(context.Background(), "seat-a")
	require.NoError(t, err)
	assert.Equal(t, "Override Name", p.Name)
	assert.Equal(t, 100000, p.TotalVoters)
}

func TestResolveRegionalTier(t *testing.T) {
	store := &fakeStore{records: map[core.ConstituencyID]*constituency.Record{
		"target": {ID: "target", Region: "coast"},
		"peer-1": {
			ID: "peer-1", Region: "coast", TotalVoters: intPtr(100000), Classification: constituency.Rural,
			Signals: &constituency.Signals{Unemployment: floatPtr(50)},
			Demographics: constituency.Demographics{Caste: constituency.Group{
				{Name: constituency.CasteGeneral, Percent: 60}, {Name: constituency.CasteSC, Percent: 40},
			}},
		},
		"peer-2": {
			ID: "peer-2", Region: "coast", TotalVoters: intPtr(200000), Classification: constituency.Rural,
			Signals: &constituency.Signals{Unemployment: floatPtr(70)},
			Demographics: constituency.Demographics{Caste: constituency.Group{
				{Name: constituency.CasteGeneral, Percent: 50}, {Name: constituency.CasteST, Percent: 50},
			}},
		},
		"elsewhere": {ID: "elsewhere", Region: "hills", TotalVoters: intPtr(900000)},
	}}

	p, err := newTestResolver(store, nil).Resolve(context.Background(), "target")
	require.NoError(t, err)

	assert.Equal(t, 150000, p.TotalVoters)
	assert.Equal(t, constituency.Rural, p.Classification)
	assert.Equal(t, 60.0, p.Swing.Unemployment)
	assert.Equal(t, constituency.Group{
		{Name: constituency.CasteGeneral, Percent: 55},
		{Name: constituency.CasteSC, Percent: 20},
		{Name: constituency.CasteST, Percent: 25},
	}, p.Demographics.Caste)
	assert.Equal(t, constituency.SourceRegional, p.Provenance[FieldTotalVoters])
	assert.Equal(t, constituency.SourceRegional, p.Provenance[FieldCaste])
	assert.Equal(t, constituency.SourceDefault, p.Provenance[FieldAntiIncumbency])
}

func TestResolveLandslideCapsEstimatedRunnerUp(t *testing.T) {
	overrides := Overrides{"landslide": {
		ID:        "landslide",
		Elections: []constituency.ElectionResult{{Year: 2024, WinningParty: "theirs", WinnerVoteShare: 70}},
	}}

	p, err := newTestResolver(nil, overrides).Resolve(context.Background(), "landslide")
	require.NoError(t, err)
	assert.Equal(t, 70.0, p.Prior.WinnerVoteShare)
	assert.Equal(t, 30.0, p.Prior.RunnerUpVoteShare)
	assert.Equal(t, 40.0, p.Prior.MarginPercent)
	assert.Equal(t, constituency.SourceDefault, p.Provenance[FieldVoteShares])
}

func TestResolveRegionalVoteSharesComeFromPairedPeers(t *testing.T) {
	store := &fakeStore{records: map[core.ConstituencyID]*constituency.Record{
		"target": {ID: "target", Region: "plains", TotalVoters: intPtr(120000)},
		"a":      {ID: "a", Region: "plains", Elections: []constituency.ElectionResult{{Year: 2024, WinnerVoteShare: 70}}},
		"b":      {ID: "b", Region: "plains", Elections: []constituency.ElectionResult{{Year: 2024, WinnerVoteShare: 50, RunnerUpVoteShare: 45}}},
	}}

	p, err := newTestResolver(store, nil).Resolve(context.Background(), "target")
	require.NoError(t, err)
	assert.Equal(t, 50.0, p.Prior.WinnerVoteShare)
	assert.Equal(t, 45.0, p.Prior.RunnerUpVoteShare)
	assert.Equal(t, constituency.SourceRegional, p.Provenance[FieldVoteShares])

	// Only winner shares reported: the default runner-up is capped.
	delete(store.records, "b")
	store.records["c"] = &constituency.Record{ID: "c", Region: "plains", Elections: []constituency.ElectionResult{{Year: 2024, WinnerVoteShare: 80}}}
	p, err = newTestResolver(store, nil).Resolve(context.Background(), "target")
	require.NoError(t, err)
	assert.Equal(t, 75.0, p.Prior.WinnerVoteShare)
	assert.Equal(t, 25.0, p.Prior.RunnerUpVoteShare)
}

func TestCapRunnerUp(t *testing.T) {
	tests := []struct {
		runnerUp, winner, want float64
	}{
		{35, 42, 35},
		{35, 30, 30},
		{35, 70, 30},
		{35, 100, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, capRunnerUp(tt.runnerUp, tt.winner), "runner-up %.0f winner %.0f", tt.runnerUp, tt.winner)
	}
}

func TestResolveRegionalZeroSignalIsRegional(t *testing.T) {
	store := &fakeStore{records: map[core.ConstituencyID]*constituency.Record{
		"target": {ID: "target", Region: "valley"},
		"p1":     {ID: "p1", Region: "valley", Signals: &constituency.Signals{AntiIncumbency: floatPtr(0)}},
		"p2":     {ID: "p2", Region: "valley", Signals: &constituency.Signals{AntiIncumbency: floatPtr(0)}},
	}}

	p, err := newTestResolver(store, nil).Resolve(context.Background(), "target")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Swing.AntiIncumbency)
	assert.Equal(t, constituency.SourceRegional, p.Provenance[FieldAntiIncumbency])
	assert.Equal(t, constituency.SourceDefault, p.Provenance[FieldUnemployment])
}

func TestResolveSkipsMalformedPeers(t *testing.T) {
	store := &fakeStore{records: map[core.ConstituencyID]*constituency.Record{
		"target": {ID: "target", Region: "delta"},
		"bad": {
			ID: "bad", Region: "delta", TotalVoters: intPtr(900000),
			Demographics: constituency.Demographics{Caste: constituency.Group{
				{Name: constituency.CasteGeneral, Percent: 50}, {Name: constituency.CasteSC, Percent: 30},
			}},
		},
		"wild": {
			ID: "wild", Region: "delta",
			Signals: &constituency.Signals{Unemployment: floatPtr(140)},
		},
		"good": {
			ID: "good", Region: "delta", TotalVoters: intPtr(100000),
			Demographics: constituency.Demographics{Caste: constituency.Group{
				{Name: constituency.CasteGeneral, Percent: 70}, {Name: constituency.CasteSC, Percent: 30},
			}},
		},
	}}

	p, err := newTestResolver(store, nil).Resolve(context.Background(), "target")
	require.NoError(t, err)
	assert.Equal(t, 100000, p.TotalVoters)
	assert.Equal(t, constituency.Group{
		{Name: constituency.CasteGeneral, Percent: 70},
		{Name: constituency.CasteSC, Percent: 30},
	}, p.Demographics.Caste)
	assert.Equal(t, DefaultUnemployment, p.Swing.Unemployment)
}

func TestResolveUnknownConstituency(t *testing.T) {
	store := &fakeStore{records: map[core.ConstituencyID]*constituency.Record{}}
	_, err := newTestResolver(store, nil).Resolve(context.Background(), "nowhere")
	assert.ErrorIs(t, err, core.ErrUnknownConstituency)

	_, err = newTestResolver(nil, nil).Resolve(context.Background(), "nowhere")
	assert.ErrorIs(t, err, core.ErrUnknownConstituency)
}

func TestResolveStoreDownFallsBackToDefaults(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}

	p, err := newTestResolver(store, nil).Resolve(context.Background(), "anywhere")
	require.NoError(t, err)
	assert.Equal(t, DefaultTotalVoters, p.TotalVoters)
	assert.Equal(t, DefaultDemographics(), p.Demographics)
	assert.Contains(t, p.EstimatedFields(), FieldTotalVoters)

	overrides := Overrides{"anywhere": {ID: "anywhere", TotalVoters: intPtr(50000)}}
	p, err = newTestResolver(store, overrides).Resolve(context.Background(), "anywhere")
	require.NoError(t, err)
	assert.Equal(t, 50000, p.TotalVoters)
}

func TestResolveHonoursCancellation(t *testing.T) {
	store := &fakeStore{err: context.Canceled}
	_, err := newTestResolver(store, nil).Resolve(context.Background(), "seat")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveRejectsMalformedRecord(t *testing.T) {
	overrides := Overrides{"broken": {ID: "broken", TotalVoters: intPtr(-10)}}
	_, err := newTestResolver(nil, overrides).Resolve(context.Background(), "broken")
	assert.True(t, core.IsMalformedError(err))
}

func TestSparseRecordSynthesizesFromDefaults(t *testing.T) {
	overrides := Overrides{"bare": {ID: "bare", TotalVoters: intPtr(150000)}}
	p, err := newTestResolver(nil, overrides).Resolve(context.Background(), "bare")
	require.NoError(t, err)

	engine, err := synthesis.NewEngine(synthesis.DefaultWeights())
	require.NoError(t, err)
	ws, err := engine.Synthesize(p)
	require.NoError(t, err)

	assert.Equal(t, strategy.StatusBattleground, ws.Status)
	assert.Equal(t, 41.2, ws.WinProbability)
	assert.Equal(t, 3.5, ws.SwingNeeded)
	assert.NotEmpty(t, ws.Segments)
	assert.NotEmpty(t, ws.ConversionPaths)
	assert.NotEmpty(t, ws.EstimatedFields)
	assert.NotContains(t, ws.EstimatedFields, FieldTotalVoters)
}

func TestKnownIDs(t *testing.T) {
	store := &fakeStore{records: map[core.ConstituencyID]*constituency.Record{
		"b-seat": {ID: "b-seat"},
		"d-seat": {ID: "d-seat"},
	}}
	overrides := Overrides{"a-seat": {ID: "a-seat"}, "b-seat": {ID: "b-seat"}}

	ids, err := newTestResolver(store, overrides).KnownIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.ConstituencyID{"a-seat", "b-seat", "d-seat"}, ids)

	down := &fakeStore{err: errors.New("down")}
	ids, err = newTestResolver(down, overrides).KnownIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.ConstituencyID{"a-seat", "b-seat"}, ids)
}

func TestDefaultOverridesResolve(t *testing.T) {
	overrides, err := DefaultOverrides()
	require.NoError(t, err)
	r := newTestResolver(nil, overrides)

	for _, id := range []core.ConstituencyID{"capital-central", "river-delta-east", "hill-tract-north"} {
		p, err := r.Resolve(context.Background(), id)
		require.NoError(t, err, id)
		assert.NotEqual(t, id.String(), p.Name)
	}
}

func TestParseOverridesRejectsDuplicates(t *testing.T) {
	_, err := ParseOverrides([]byte("constituencies:\n  - id: a\n  - id: A\n"))
	assert.Error(t, err)

	_, err = ParseOverrides([]byte("constituencies:\n  - id: ''\n"))
	assert.Error(t, err)
}

func TestLoadOverridesLayersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
constituencies:
  - id: capital-central
    total_voters: 250000
  - id: new-seat
    name: New Seat
`), 0o600))

	overrides, err := LoadOverrides(path)
	require.NoError(t, err)
	require.Contains(t, overrides, core.ConstituencyID("new-seat"))

	capital := overrides["capital-central"]
	assert.Equal(t, "Capital Central", capital.Name)
	require.NotNil(t, capital.TotalVoters)
	assert.Equal(t, 250000, *capital.TotalVoters)

	_, err = LoadOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
