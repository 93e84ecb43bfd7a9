package analysis

import (
	"fmt"

	"github.com/KaramelBytes/qdata-clean/internal/table"
)

// DefaultChartPoints caps the number of rows plotted.
const DefaultChartPoints = 100

// ChartType is a visualization kind offered to the presentation layer.
type ChartType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ChartTypes lists the supported chart kinds.
var ChartTypes = []ChartType{
	{ID: "line", Label: "Line Chart"},
	{ID: "bar", Label: "Bar Chart"},
	{ID: "scatter", Label: "Scatter Plot"},
}

// ChartPoint is one plotted point.
type ChartPoint struct {
	X    table.Value `json:"x"`
	Y    float64     `json:"y"`
	Name string      `json:"name"`
}

// ChartPoints prepares up to limit points (DefaultChartPoints when limit <= 0)
// from the leading rows. X falls back to the row index when the x cell is
// missing or a numeric zero; Y falls back to 0 when not numeric.
func ChartPoints(t *table.Table, xColumn, yColumn string, limit int) []ChartPoint {
	if limit <= 0 {
		limit = DefaultChartPoints
	}
	head := t.Head(limit)
	out := make([]ChartPoint, 0, head.Len())
	for i, r := range head.Rows() {
		x := r.Get(xColumn)
		if x.IsMissing() || isZeroNumber(x) {
			x = table.Num(float64(i))
		}
		y, _ := r.Get(yColumn).Float()
		out = append(out, ChartPoint{X: x, Y: y, Name: fmt.Sprintf("Point %d", i+1)})
	}
	return out
}

func isZeroNumber(v table.Value) bool {
	if v.Kind() != table.Number {
		return false
	}
	f, ok := v.Float()
	return ok && f == 0
}
