package cleaning

import (
	"math"
	"strconv"

	"github.com/KaramelBytes/qdata-clean/internal/analysis"
	"github.com/KaramelBytes/qdata-clean/internal/table"
)

// stepFunc transforms a table and reports the columns it touched.
type stepFunc func(p *Pipeline, t *table.Table) (*table.Table, []string, error)

var steps = map[Option]stepFunc{
	RemoveNulls:         removeNulls,
	RemoveOutliers:      removeOutliers,
	NormalizeNumbers:    normalizeNumbers,
	StandardizeFormat:   noop,
	AggregateDuplicates: noop,
}

func noop(_ *Pipeline, t *table.Table) (*table.Table, []string, error) {
	return t, nil, nil
}

// removeNulls drops rows in which every value is missing.
func removeNulls(_ *Pipeline, t *table.Table) (*table.Table, []string, error) {
	return t.Filter(func(r table.Row) bool { return !r.AllMissing() }), nil, nil
}

func removeOutliers(p *Pipeline, t *table.Table) (*table.Table, []string, error) {
	if p.cfg.OutlierMethod == OutlierTruncate {
		keep := int(math.Floor(float64(t.Len()) * p.cfg.TruncateKeep))
		return t.Head(keep), nil, nil
	}

	type fence struct {
		col    string
		lo, hi float64
	}
	var fences []fence
	for _, c := range analysis.NumericColumns(t) {
		vals := analysis.NumericValues(t, c)
		if len(vals) < p.cfg.MinOutlierSamples {
			continue
		}
		lo, hi := analysis.Fences(vals, p.cfg.IQRMultiplier)
		fences = append(fences, fence{col: c, lo: lo, hi: hi})
	}
	if len(fences) == 0 {
		return t, nil, nil
	}
	cols := make([]string, len(fences))
	for i, f := range fences {
		cols[i] = f.col
	}
	out := t.Filter(func(r table.Row) bool {
		for _, f := range fences {
			if x, ok := r.Get(f.col).Float(); ok && (x < f.lo || x > f.hi) {
				return false
			}
		}
		return true
	})
	return out, cols, nil
}

// normalizeNumbers min-max scales every numeric column to [0,1], rendered
// with four decimals. Missing and non-numeric cells are left as they are.
// minMaxScale maps x from [lo, hi] onto [0, 1]. A span too wide for float64
// is halved before dividing.
func minMaxScale(x, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	scaled := (x - lo) / (hi - lo)
	if math.IsInf(hi-lo, 0) {
		scaled = (x/2 - lo/2) / (hi/2 - lo/2)
	}
	return math.Max(0, math.Min(1, scaled))
}

func normalizeNumbers(p *Pipeline, t *table.Table) (*table.Table, []string, error) {
	cols := analysis.NumericColumns(t)
	type bounds struct{ min, max float64 }
	scale := make(map[string]bounds, len(cols))
	for _, c := range cols {
		vals := analysis.NumericValues(t, c)
		b := bounds{min: math.Inf(1), max: math.Inf(-1)}
		for _, v := range vals {
			b.min = math.Min(b.min, v)
			b.max = math.Max(b.max, v)
		}
		if b.max == b.min && p.cfg.NormalizeStrict {
			return nil, nil, &DegenerateColumnError{Column: c, Value: b.min}
		}
		scale[c] = b
	}
	out := t.Map(func(r table.Row) table.Row {
		for _, c := range cols {
			x, ok := r.Get(c).Float()
			if !ok {
				continue
			}
			b := scale[c]
			r = r.With(c, table.String(strconv.FormatFloat(minMaxScale(x, b.min, b.max), 'f', 4, 64)))
		}
		return r
	})
	return out, cols, nil
}
