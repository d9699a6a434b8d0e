package profiling

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summarize computes summary statistics for one field. It fails only on
// empty input.
func Summarize(field string, data []float64) (Summary, error) {
	s := Summary{Field: field, N: len(data)}

	mean, err := stats.Mean(data)
	if err != nil {
		return s, err
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return s, err
	}
	minV, err := stats.Min(data)
	if err != nil {
		return s, err
	}
	maxV, err := stats.Max(data)
	if err != nil {
		return s, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return s, err
	}
	sorted := append([]float64{}, data...)
	sort.Float64s(sorted)
	q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)

	s.Mean = round2(mean)
	s.StdDev = round2(stdDev)
	s.Min = minV
	s.Max = maxV
	s.Median = round2(median)
	s.Q25 = round2(q25)
	s.Q75 = round2(q75)
	if stdDev > 0 && len(data) > 2 {
		s.Skewness = round2(stat.Skew(data, nil))
	}
	s.Outliers = detectOutliers(data, q25, q75)
	return s, nil
}

// detectOutliers counts values outside 1.5 IQR of the quartiles
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower := q25 - 1.5*iqr
	upper := q75 + 1.5*iqr

	count := 0
	for _, v := range data {
		if v < lower || v > upper {
			count++
		}
	}
	return count
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
