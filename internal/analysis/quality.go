package analysis

import (
	"math"

	"github.com/KaramelBytes/qdata-clean/internal/table"
)

// QualityScore is the rounded percentage of rows with no missing value.
// An empty table scores 0.
func QualityScore(t *table.Table) int {
	n := t.Len()
	if n == 0 {
		return 0
	}
	complete := 0
	for _, r := range t.Rows() {
		if !r.HasMissing() {
			complete++
		}
	}
	return int(math.Round(float64(complete) * 100 / float64(n)))
}
