package profiling

import "campaignintel/domain/core"

// FieldCoverage counts which fallback tier supplied one profile field
type FieldCoverage struct {
	Field     string  `json:"field"`
	Exact     int     `json:"exact"`
	Regional  int     `json:"regional"`
	Default   int     `json:"default"`
	ExactRate float64 `json:"exact_rate"`
}

// Summary describes the spread of one numeric field across constituencies
type Summary struct {
	Field    string  `json:"field"`
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Outliers int     `json:"outliers"`
}

// Report is the data-coverage profile of a set of resolved constituencies
type Report struct {
	Constituencies  int                   `json:"constituencies"`
	Coverage        []FieldCoverage       `json:"coverage"`
	Distributions   []Summary             `json:"distributions"`
	MostlyEstimated []core.ConstituencyID `json:"mostly_estimated,omitempty"`
	Unresolved      map[string]string     `json:"unresolved,omitempty"`
}
