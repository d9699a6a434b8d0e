// Package resolver assembles a complete constituency profile from sparse
// records. Every field is filled from the first tier that has it: the
// exact-match record (store record with overrides on top), the average of the
// other constituencies in the same region, then the global defaults.
package resolver

import (
	"context"
	"errors"
	"math"
	"sort"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"
	"campaignintel/internal"
	"campaignintel/ports"

	"github.com/montanaflynn/stats"
)

// Provenance keys, one per estimable field.
const (
	FieldTotalVoters          = "total_voters"
	FieldClassification       = "classification"
	FieldOurPosition          = "prior.our_position"
	FieldVoteShares           = "prior.vote_shares"
	FieldOurVoteShare         = "prior.our_vote_share"
	FieldReligion             = "demographics.religion"
	FieldCaste                = "demographics.caste"
	FieldAge                  = "demographics.age"
	FieldGender               = "demographics.gender"
	FieldAntiIncumbency       = "swing.anti_incumbency"
	FieldPolicyImpact         = "swing.policy_impact"
	FieldWelfareDependency    = "swing.welfare_dependency"
	FieldUnemployment         = "swing.unemployment"
	FieldCorruptionPerception = "swing.corruption_perception"
)

// Resolver builds profiles. It holds no per-request state.
type Resolver struct {
	store     ports.ConstituencyStore
	overrides Overrides
	logger    *internal.Logger
}

// New creates a resolver. store may be nil, in which case the overrides are
// the only known constituencies.
func New(store ports.ConstituencyStore, overrides Overrides, logger *internal.Logger) *Resolver {
	if overrides == nil {
		overrides = Overrides{}
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Resolver{store: store, overrides: overrides, logger: logger}
}

// Resolve returns a fully populated, validated profile for id. It fails with
// core.ErrUnknownConstituency when neither the store nor the overrides know the
// id, and with core.ErrMalformedProfile when the resolved data breaks an
// invariant. An unreachable store is logged and resolution continues on the
// remaining tiers.
func (r *Resolver) Resolve(ctx context.Context, id core.ConstituencyID) (*constituency.Profile, error) {
	rec, storeUp, err := r.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	override := r.overrides[id]
	if rec == nil && override == nil {
		if storeUp {
			return nil, core.NewUnknownConstituencyError(id)
		}
		r.logger.Warn("[Resolver] store unavailable and no override for %s, using global defaults", id)
	}

	exact := constituency.Record{ID: id}
	if rec != nil {
		exact = *rec
		exact.ID = id
	}
	exact = exact.Overlay(override)

	var peers []*constituency.Record
	if storeUp && r.store != nil && exact.Region != "" {
		peers = r.regionalPeers(ctx, id, exact.Region)
	}

	p := build(&exact, newRegional(peers))
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// KnownIDs lists every id resolvable from the store or the overrides, sorted.
func (r *Resolver) KnownIDs(ctx context.Context) ([]core.ConstituencyID, error) {
	seen := make(map[core.ConstituencyID]struct{}, len(r.overrides))
	for id := range r.overrides {
		seen[id] = struct{}{}
	}
	if r.store != nil {
		ids, err := r.store.ListIDs(ctx)
		if err != nil {
			r.logger.Warn("[Resolver] listing store ids failed: %v", err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	out := make([]core.ConstituencyID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// fetch reads the store record. storeUp is false when the store could not
// answer; a context cancellation is returned as an error.
func (r *Resolver) fetch(ctx context.Context, id core.ConstituencyID) (rec *constituency.Record, storeUp bool, err error) {
	if r.store == nil {
		return nil, true, nil
	}
	rec, err = r.store.GetRecord(ctx, id)
	switch {
	case err == nil:
		return rec, true, nil
	case core.IsNotFoundError(err):
		return nil, true, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, false, err
	default:
		r.logger.Warn("[Resolver] %v", core.NewUnavailableError("record store", err))
		return nil, false, nil
	}
}

func (r *Resolver) regionalPeers(ctx context.Context, id core.ConstituencyID, region string) []*constituency.Record {
	recs, err := r.store.ListByRegion(ctx, region)
	if err != nil {
		r.logger.Warn("[Resolver] regional lookup for %s failed: %v", region, err)
		return nil
	}
	peers := make([]*constituency.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.ID == id {
			continue
		}
		if err := checkPeer(rec); err != nil {
			r.logger.Warn("[Resolver] skipping %s in regional averages for %s: %v", rec.ID, id, err)
			continue
		}
		peers = append(peers, rec)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].ID < peers[j].ID })
	return peers
}

// checkPeer rejects records whose data would poison a regional average.
func checkPeer(rec *constituency.Record) error {
	for _, ng := range rec.Demographics.Groups() {
		if err := constituency.ValidateGroup("demographics."+ng.Name, ng.Group); err != nil {
			return err
		}
	}
	if sig := rec.Signals; sig != nil {
		for field, v := range map[string]*float64{
			FieldAntiIncumbency:       sig.AntiIncumbency,
			FieldWelfareDependency:    sig.WelfareDependency,
			FieldUnemployment:         sig.Unemployment,
			FieldCorruptionPerception: sig.CorruptionPerception,
		} {
			if v != nil && (math.IsNaN(*v) || *v < 0 || *v > 100) {
				return core.NewMalformedError(field, "%.2f outside [0,100]", *v)
			}
		}
	}
	if latest := rec.Latest(); latest != nil {
		w, r := latest.WinnerVoteShare, latest.RunnerUpVoteShare
		if w < 0 || w > 100 || r < 0 || r > w || w+r > 100+constituency.GroupTolerance {
			return core.NewMalformedError("elections", "latest shares %.1f/%.1f are inconsistent", w, r)
		}
	}
	return nil
}

// build fills the profile field by field and records provenance.
func build(exact *constituency.Record, reg *regional) *constituency.Profile {
	prov := map[string]constituency.Source{}
	p := &constituency.Profile{
		ID:         exact.ID,
		Name:       exact.Name,
		District:   exact.District,
		Region:     exact.Region,
		Provenance: prov,
	}
	if p.Name == "" {
		p.Name = exact.ID.String()
	}

	switch {
	case exact.TotalVoters != nil:
		p.TotalVoters, prov[FieldTotalVoters] = *exact.TotalVoters, constituency.SourceExact
	case reg.totalVoters > 0:
		p.TotalVoters, prov[FieldTotalVoters] = reg.totalVoters, constituency.SourceRegional
	default:
		p.TotalVoters, prov[FieldTotalVoters] = DefaultTotalVoters, constituency.SourceDefault
	}

	switch {
	case exact.Classification != "":
		p.Classification, prov[FieldClassification] = exact.Classification, constituency.SourceExact
	case reg.classification != "":
		p.Classification, prov[FieldClassification] = reg.classification, constituency.SourceRegional
	default:
		p.Classification, prov[FieldClassification] = DefaultClassification, constituency.SourceDefault
	}

	p.Prior = buildPrior(exact, reg, prov)
	p.History = sortedHistory(exact.Elections)

	p.Demographics.Religion = pickGroup(FieldReligion, exact.Demographics.Religion, reg.groups[FieldReligion], DefaultDemographics().Religion, prov)
	p.Demographics.Caste = pickGroup(FieldCaste, exact.Demographics.Caste, reg.groups[FieldCaste], DefaultDemographics().Caste, prov)
	p.Demographics.Age = pickGroup(FieldAge, exact.Demographics.Age, reg.groups[FieldAge], DefaultDemographics().Age, prov)
	p.Demographics.Gender = pickGroup(FieldGender, exact.Demographics.Gender, reg.groups[FieldGender], DefaultDemographics().Gender, prov)

	sig := exact.Signals
	if sig == nil {
		sig = &constituency.Signals{}
	}
	p.Swing.AntiIncumbency = pickFloat(FieldAntiIncumbency, sig.AntiIncumbency, reg.signals, DefaultAntiIncumbency, prov)
	p.Swing.WelfareDependency = pickFloat(FieldWelfareDependency, sig.WelfareDependency, reg.signals, DefaultWelfareDependency, prov)
	p.Swing.Unemployment = pickFloat(FieldUnemployment, sig.Unemployment, reg.signals, DefaultUnemployment, prov)
	p.Swing.CorruptionPerception = pickFloat(FieldCorruptionPerception, sig.CorruptionPerception, reg.signals, DefaultCorruptionPerception, prov)
	switch {
	case sig.PolicyImpact != "":
		p.Swing.PolicyImpact, prov[FieldPolicyImpact] = sig.PolicyImpact, constituency.SourceExact
	case reg.policyImpact != "":
		p.Swing.PolicyImpact, prov[FieldPolicyImpact] = reg.policyImpact, constituency.SourceRegional
	default:
		p.Swing.PolicyImpact, prov[FieldPolicyImpact] = DefaultPolicyImpact, constituency.SourceDefault
	}

	if exact.NamedIncumbent != nil {
		p.Notability.NamedIncumbent = *exact.NamedIncumbent
	}
	if exact.CapitalDistrict != nil {
		p.Notability.CapitalDistrict = *exact.CapitalDistrict
	}
	if len(exact.BoothHistory) > 0 {
		p.BoothHistory = append([]constituency.BoothRecord{}, exact.BoothHistory...)
	}
	return p
}

// buildPrior derives our standing from the latest election. A runner-up share
// estimated from a lower tier is capped by capRunnerUp so the pair stays
// coherent.
func buildPrior(exact *constituency.Record, reg *regional, prov map[string]constituency.Source) constituency.PriorStanding {
	prior := constituency.PriorStanding{OurParty: exact.OurParty}
	if prior.OurParty == "" {
		prior.OurParty = DefaultOurParty
	}

	latest := exact.Latest()
	switch {
	case latest != nil && latest.WinnerVoteShare > 0:
		prior.WinningParty = latest.WinningParty
		prior.WinnerVoteShare = latest.WinnerVoteShare
		prior.RunnerUpVoteShare = latest.RunnerUpVoteShare
		prov[FieldVoteShares] = constituency.SourceExact
		if prior.RunnerUpVoteShare <= 0 {
			prior.RunnerUpVoteShare = capRunnerUp(firstPositive(reg.runnerUpShare, DefaultRunnerUpVoteShare), prior.WinnerVoteShare)
			prov[FieldVoteShares] = constituency.SourceRegional
			if reg.runnerUpShare <= 0 {
				prov[FieldVoteShares] = constituency.SourceDefault
			}
		}
	case reg.winnerShare > 0:
		prior.WinnerVoteShare = reg.winnerShare
		prior.RunnerUpVoteShare = capRunnerUp(firstPositive(reg.runnerUpShare, DefaultRunnerUpVoteShare), reg.winnerShare)
		prov[FieldVoteShares] = constituency.SourceRegional
	default:
		prior.WinnerVoteShare = DefaultWinnerVoteShare
		prior.RunnerUpVoteShare = DefaultRunnerUpVoteShare
		prov[FieldVoteShares] = constituency.SourceDefault
	}
	if latest != nil && latest.MarginPercent > 0 {
		prior.MarginPercent = latest.MarginPercent
	} else {
		prior.MarginPercent = prior.WinnerVoteShare - prior.RunnerUpVoteShare
	}

	switch {
	case exact.OurPosition != nil:
		prior.OurPosition, prov[FieldOurPosition] = *exact.OurPosition, constituency.SourceExact
	case latest != nil && exact.OurParty != "" && latest.WinningParty == exact.OurParty:
		prior.OurPosition, prov[FieldOurPosition] = 1, constituency.SourceExact
	case latest != nil && exact.OurParty != "" && latest.RunnerUpParty == exact.OurParty:
		prior.OurPosition, prov[FieldOurPosition] = 2, constituency.SourceExact
	default:
		prior.OurPosition, prov[FieldOurPosition] = DefaultOurPosition, constituency.SourceDefault
	}

	switch {
	case exact.OurShare != nil:
		prior.OurVoteShare, prov[FieldOurVoteShare] = *exact.OurShare, constituency.SourceExact
	default:
		switch prior.OurPosition {
		case 1:
			prior.OurVoteShare = prior.WinnerVoteShare
		case 2:
			prior.OurVoteShare = prior.RunnerUpVoteShare
		default:
			prior.OurVoteShare = math.Min(DefaultThirdPlaceShare, prior.RunnerUpVoteShare)
		}
		// Derived shares inherit the weaker of the two inputs' provenance.
		prov[FieldOurVoteShare] = weaker(prov[FieldVoteShares], prov[FieldOurPosition])
	}
	return prior
}

func sortedHistory(elections []constituency.ElectionResult) []constituency.ElectionResult {
	if len(elections) == 0 {
		return nil
	}
	out := append([]constituency.ElectionResult{}, elections...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}

func pickGroup(field string, exact, regional, fallback constituency.Group, prov map[string]constituency.Source) constituency.Group {
	switch {
	case len(exact) > 0:
		prov[field] = constituency.SourceExact
		return append(constituency.Group{}, exact...)
	case len(regional) > 0:
		prov[field] = constituency.SourceRegional
		return regional
	default:
		prov[field] = constituency.SourceDefault
		return fallback
	}
}

// capRunnerUp keeps an estimated runner-up share at or below both the winner
// share and what the winner leaves of the vote.
func capRunnerUp(runnerUp, winner float64) float64 {
	return math.Max(0, math.Min(runnerUp, math.Min(winner, 100-winner)))
}

func pickFloat(field string, exact *float64, regional map[string]float64, fallback float64, prov map[string]constituency.Source) float64 {
	if exact != nil {
		prov[field] = constituency.SourceExact
		return *exact
	}
	if v, ok := regional[field]; ok {
		prov[field] = constituency.SourceRegional
		return v
	}
	prov[field] = constituency.SourceDefault
	return fallback
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

var sourceRank = map[constituency.Source]int{
	constituency.SourceExact:    0,
	constituency.SourceRegional: 1,
	constituency.SourceDefault:  2,
}

func weaker(a, b constituency.Source) constituency.Source {
	if sourceRank[a] >= sourceRank[b] {
		return a
	}
	return b
}

// regional holds same-region averages. Zero scalars mean "no regional data";
// signals and groups hold only fields some peer reported.
type regional struct {
	totalVoters    int
	classification constituency.Classification
	policyImpact   constituency.PolicyImpact
	winnerShare    float64
	runnerUpShare  float64
	signals        map[string]float64
	groups         map[string]constituency.Group
}

func newRegional(peers []*constituency.Record) *regional {
	reg := &regional{
		signals: map[string]float64{},
		groups:  map[string]constituency.Group{},
	}
	if len(peers) == 0 {
		return reg
	}

	var voters, winners, winnersOnly, runnersUp stats.Float64Data
	sig := map[string]stats.Float64Data{}
	classes := []string{}
	impacts := []string{}
	groups := map[string][]constituency.Group{}

	for _, rec := range peers {
		if rec.TotalVoters != nil && *rec.TotalVoters > 0 {
			voters = append(voters, float64(*rec.TotalVoters))
		}
		if rec.Classification != "" {
			classes = append(classes, string(rec.Classification))
		}
		if latest := rec.Latest(); latest != nil && latest.WinnerVoteShare > 0 {
			if latest.RunnerUpVoteShare > 0 {
				winners = append(winners, latest.WinnerVoteShare)
				runnersUp = append(runnersUp, latest.RunnerUpVoteShare)
			} else {
				winnersOnly = append(winnersOnly, latest.WinnerVoteShare)
			}
		}
		if s := rec.Signals; s != nil {
			appendSignal(sig, FieldAntiIncumbency, s.AntiIncumbency)
			appendSignal(sig, FieldWelfareDependency, s.WelfareDependency)
			appendSignal(sig, FieldUnemployment, s.Unemployment)
			appendSignal(sig, FieldCorruptionPerception, s.CorruptionPerception)
			if s.PolicyImpact != "" {
				impacts = append(impacts, string(s.PolicyImpact))
			}
		}
		d := rec.Demographics
		for field, g := range map[string]constituency.Group{
			FieldReligion: d.Religion, FieldCaste: d.Caste, FieldAge: d.Age, FieldGender: d.Gender,
		} {
			if len(g) > 0 {
				groups[field] = append(groups[field], g)
			}
		}
	}

	if m, err := stats.Mean(voters); err == nil {
		reg.totalVoters = int(math.Round(m))
	}
	// The pair comes from the same peers so its sum stays within 100. Peers
	// without a runner-up only count when no peer reported both.
	if m, err := stats.Mean(winners); err == nil {
		reg.winnerShare = round2(m)
		if m, err := stats.Mean(runnersUp); err == nil {
			reg.runnerUpShare = round2(m)
		}
	} else if m, err := stats.Mean(winnersOnly); err == nil {
		reg.winnerShare = round2(m)
	}
	for field, data := range sig {
		if m, err := stats.Mean(data); err == nil {
			reg.signals[field] = round2(m)
		}
	}
	reg.classification = constituency.Classification(mode(classes))
	reg.policyImpact = constituency.PolicyImpact(mode(impacts))
	for field, gs := range groups {
		reg.groups[field] = averageGroups(gs)
	}
	return reg
}

func appendSignal(sig map[string]stats.Float64Data, field string, v *float64) {
	if v != nil {
		sig[field] = append(sig[field], *v)
	}
}

// averageGroups averages category by category, treating a category missing
// from one record as zero so the averaged group still totals ~100. Category
// order is first-seen order across the (id-sorted) peers.
func averageGroups(gs []constituency.Group) constituency.Group {
	order := []string{}
	seen := map[string]bool{}
	for _, g := range gs {
		for _, s := range g {
			if !seen[s.Name] {
				seen[s.Name] = true
				order = append(order, s.Name)
			}
		}
	}
	out := make(constituency.Group, 0, len(order))
	for _, name := range order {
		data := make(stats.Float64Data, len(gs))
		for i, g := range gs {
			data[i] = g.Percent(name)
		}
		m, _ := stats.Mean(data)
		out = append(out, constituency.Share{Name: name, Percent: round2(m)})
	}
	return out
}

// mode returns the most frequent value; on a tie the value that reached the
// top count first wins.
func mode(values []string) string {
	counts := map[string]int{}
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
