// Package profiling reports how much of each resolved profile came from real
// records rather than regional averages or global defaults, and how the key
// numeric inputs are spread across constituencies.
package profiling

import (
	"sort"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"
)

// numericFields are the profile inputs summarized in a report
var numericFields = []struct {
	name  string
	value func(p *constituency.Profile) float64
}{
	{"total_voters", func(p *constituency.Profile) float64 { return float64(p.TotalVoters) }},
	{"prior.winner_vote_share", func(p *constituency.Profile) float64 { return p.Prior.WinnerVoteShare }},
	{"prior.our_vote_share", func(p *constituency.Profile) float64 { return p.Prior.OurVoteShare }},
	{"swing.anti_incumbency", func(p *constituency.Profile) float64 { return p.Swing.AntiIncumbency }},
	{"swing.welfare_dependency", func(p *constituency.Profile) float64 { return p.Swing.WelfareDependency }},
	{"swing.unemployment", func(p *constituency.Profile) float64 { return p.Swing.Unemployment }},
}

// Profiler builds coverage reports
type Profiler struct{}

// NewProfiler creates a profiler
func NewProfiler() *Profiler {
	return &Profiler{}
}

// Build profiles the given constituencies. A constituency whose provenance is
// more than half estimated is listed in MostlyEstimated.
func (pr *Profiler) Build(profiles []*constituency.Profile) *Report {
	report := &Report{Constituencies: len(profiles)}

	counts := map[string]*FieldCoverage{}
	for _, p := range profiles {
		estimated := 0
		for field, src := range p.Provenance {
			fc, ok := counts[field]
			if !ok {
				fc = &FieldCoverage{Field: field}
				counts[field] = fc
			}
			switch src {
			case constituency.SourceExact:
				fc.Exact++
			case constituency.SourceRegional:
				fc.Regional++
				estimated++
			default:
				fc.Default++
				estimated++
			}
		}
		if len(p.Provenance) > 0 && estimated*2 > len(p.Provenance) {
			report.MostlyEstimated = append(report.MostlyEstimated, p.ID)
		}
	}

	report.Coverage = make([]FieldCoverage, 0, len(counts))
	for _, fc := range counts {
		if total := fc.Exact + fc.Regional + fc.Default; total > 0 {
			fc.ExactRate = round2(float64(fc.Exact) / float64(total))
		}
		report.Coverage = append(report.Coverage, *fc)
	}
	sort.Slice(report.Coverage, func(i, j int) bool { return report.Coverage[i].Field < report.Coverage[j].Field })
	sort.Slice(report.MostlyEstimated, func(i, j int) bool { return report.MostlyEstimated[i] < report.MostlyEstimated[j] })

	if len(profiles) == 0 {
		return report
	}
	for _, nf := range numericFields {
		data := make([]float64, len(profiles))
		for i, p := range profiles {
			data[i] = nf.value(p)
		}
		if s, err := Summarize(nf.name, data); err == nil {
			report.Distributions = append(report.Distributions, s)
		}
	}
	return report
}

// AddUnresolved records a constituency that could not be profiled
func (r *Report) AddUnresolved(id core.ConstituencyID, err error) {
	if r.Unresolved == nil {
		r.Unresolved = map[string]string{}
	}
	r.Unresolved[id.String()] = err.Error()
}
