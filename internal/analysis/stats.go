package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/qdata-clean/internal/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SummaryStats holds descriptive statistics for one numeric column.
type SummaryStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes statistics over the numerically convertible values of
// column; other cells are skipped. It returns false when there are none.
// Median is the upper median (sorted[n/2]) and StdDev the population
// standard deviation.
func Summarize(t *table.Table, column string) (SummaryStats, bool) {
	vals := NumericValues(t, column)
	if len(vals) == 0 {
		return SummaryStats{Column: column}, false
	}
	mean, variance := stat.PopMeanVariance(vals, nil)
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	return SummaryStats{
		Column: column,
		Count:  len(vals),
		Mean:   mean,
		Median: sorted[len(sorted)/2],
		Min:    floats.Min(vals),
		Max:    floats.Max(vals),
		StdDev: math.Sqrt(variance),
	}, true
}

// SummarizeAll returns statistics for every numeric column.
func SummarizeAll(t *table.Table) []SummaryStats {
	var out []SummaryStats
	for _, c := range NumericColumns(t) {
		if s, ok := Summarize(t, c); ok {
			out = append(out, s)
		}
	}
	return out
}

// NumericValues returns the finite numeric values of column in row order.
func NumericValues(t *table.Table, column string) []float64 {
	var out []float64
	for _, v := range t.Column(column) {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Quantile interpolates linearly between closest ranks (pos = q*(n-1)).
// sorted must be in ascending order.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Fences returns the Tukey fences [Q1-k*IQR, Q3+k*IQR] of vals.
func Fences(vals []float64, k float64) (lo, hi float64) {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr
}
