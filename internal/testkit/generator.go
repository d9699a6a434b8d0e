package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"
)

// GeneratorConfig configures the synthetic record generator
type GeneratorConfig struct {
	Count      int      `json:"count"`
	Regions    []string `json:"regions"`
	OurParty   string   `json:"our_party"`
	SparseRate float64  `json:"sparse_rate"` // chance that each optional field is left out
	Seed       int64    `json:"seed"`
}

// DefaultGeneratorConfig returns forty seats over four regions with about a
// third of the optional fields missing.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Count:      40,
		Regions:    []string{"north", "south", "coastal", "hills"},
		OurParty:   "our party",
		SparseRate: 0.3,
		Seed:       42,
	}
}

// Generator produces plausible, sparse constituency records. The same config
// always yields the same records.
type Generator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewGenerator creates a generator
func NewGenerator(config GeneratorConfig) *Generator {
	if len(config.Regions) == 0 {
		config.Regions = DefaultGeneratorConfig().Regions
	}
	if config.OurParty == "" {
		config.OurParty = DefaultGeneratorConfig().OurParty
	}
	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Records generates config.Count records with ids seat-001, seat-002, ...
func (g *Generator) Records() []*constituency.Record {
	out := make([]*constituency.Record, 0, g.config.Count)
	for i := 0; i < g.config.Count; i++ {
		out = append(out, g.record(i))
	}
	return out
}

func (g *Generator) record(i int) *constituency.Record {
	rec := &constituency.Record{
		ID:       core.ConstituencyID(fmt.Sprintf("seat-%03d", i+1)),
		Name:     fmt.Sprintf("Seat %03d", i+1),
		District: fmt.Sprintf("District %d", i/3+1),
		Region:   g.config.Regions[i%len(g.config.Regions)],
		OurParty: g.config.OurParty,
	}

	if g.keep() {
		voters := 90000 + g.rng.Intn(230000)
		rec.TotalVoters = &voters
	}
	if g.keep() {
		classes := []constituency.Classification{constituency.Urban, constituency.SemiUrban, constituency.Rural}
		rec.Classification = classes[g.rng.Intn(len(classes))]
	}
	if g.keep() {
		rec.Elections = g.elections(rec)
	}
	if g.keep() {
		rec.Demographics.Religion = g.group(constituency.ReligionHindu, constituency.ReligionMuslim,
			constituency.ReligionChristian, constituency.ReligionSikh, constituency.ReligionOther)
	}
	if g.keep() {
		rec.Demographics.Caste = g.group(constituency.CasteGeneral, constituency.CasteOBC, constituency.CasteSC, constituency.CasteST)
	}
	if g.keep() {
		rec.Demographics.Age = g.group(constituency.AgeYouth, constituency.AgeMiddle, constituency.AgeSenior)
	}
	if g.keep() {
		female := round1(46 + g.rng.Float64()*5)
		rec.Demographics.Gender = constituency.Group{
			{Name: constituency.GenderMale, Percent: round1(100 - female)},
			{Name: constituency.GenderFemale, Percent: female},
		}
	}
	rec.Signals = g.signals()
	if g.rng.Float64() < 0.1 {
		yes := true
		rec.NamedIncumbent = &yes
	}
	if g.rng.Float64() < 0.2 {
		rec.BoothHistory = g.booths()
	}
	return rec
}

func (g *Generator) keep() bool {
	return g.rng.Float64() >= g.config.SparseRate
}

// elections builds two cycles. Our position in the latest one is 1, 2 or 3.
func (g *Generator) elections(rec *constituency.Record) []constituency.ElectionResult {
	results := make([]constituency.ElectionResult, 0, 2)
	for _, year := range []int{2019, 2024} {
		winner := round1(35 + g.rng.Float64()*20)
		runnerUp := round1(math.Min(winner-1-g.rng.Float64()*14, 95-winner))
		res := constituency.ElectionResult{
			Year:              year,
			WinnerVoteShare:   winner,
			RunnerUpVoteShare: runnerUp,
			MarginPercent:     round1(winner - runnerUp),
			Turnout:           round1(55 + g.rng.Float64()*25),
		}
		switch g.rng.Intn(3) {
		case 0:
			res.WinningParty, res.RunnerUpParty = rec.OurParty, "rival-a"
		case 1:
			res.WinningParty, res.RunnerUpParty = "rival-a", rec.OurParty
		default:
			res.WinningParty, res.RunnerUpParty = "rival-a", "rival-b"
		}
		results = append(results, res)
	}

	latest := results[len(results)-1]
	if latest.WinningParty != rec.OurParty && latest.RunnerUpParty != rec.OurParty {
		third := 3
		share := round1(math.Max(latest.RunnerUpVoteShare-3-g.rng.Float64()*10, 5))
		rec.OurPosition = &third
		rec.OurShare = &share
	}
	return results
}

// group splits 100 across names; the last category absorbs rounding.
func (g *Generator) group(names ...string) constituency.Group {
	weights := make([]float64, len(names))
	var total float64
	for i := range names {
		weights[i] = 1 + g.rng.Float64()*9
		total += weights[i]
	}
	out := make(constituency.Group, len(names))
	var assigned float64
	for i, name := range names {
		pct := round1(weights[i] / total * 100)
		if i == len(names)-1 {
			pct = round1(100 - assigned)
		}
		assigned += pct
		out[i] = constituency.Share{Name: name, Percent: pct}
	}
	return out
}

func (g *Generator) signals() *constituency.Signals {
	sig := &constituency.Signals{}
	pick := func() *float64 {
		if !g.keep() {
			return nil
		}
		v := round1(20 + g.rng.Float64()*60)
		return &v
	}
	sig.AntiIncumbency = pick()
	sig.WelfareDependency = pick()
	sig.Unemployment = pick()
	sig.CorruptionPerception = pick()
	if g.keep() {
		tiers := []constituency.PolicyImpact{
			constituency.PolicyImpactHigh, constituency.PolicyImpactMedium,
			constituency.PolicyImpactLow, constituency.PolicyImpactNone,
		}
		sig.PolicyImpact = tiers[g.rng.Intn(len(tiers))]
	}
	return sig
}

func (g *Generator) booths() []constituency.BoothRecord {
	n := 10 + g.rng.Intn(20)
	out := make([]constituency.BoothRecord, n)
	for i := range out {
		out[i] = constituency.BoothRecord{Booth: i + 1, OurVoteShare: round1(10 + g.rng.Float64()*60)}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
