package cleaning

import (
	"fmt"
	"strings"
)

// Option identifies a cleaning step.
type Option string

const (
	RemoveNulls         Option = "remove_nulls"
	NormalizeNumbers    Option = "normalize_numbers"
	RemoveOutliers      Option = "remove_outliers"
	StandardizeFormat   Option = "standardize_format"
	AggregateDuplicates Option = "aggregate_duplicates"
)

// OptionInfo describes a catalog entry for display.
type OptionInfo struct {
	ID          Option `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
	// NoOp marks options that are accepted but do not transform data.
	NoOp bool `json:"no_op,omitempty"`
}

// Catalog lists every option in display order.
var Catalog = []OptionInfo{
	{ID: RemoveNulls, Label: "Remove null/empty values", Description: "Clean up missing data points", Default: true},
	{ID: NormalizeNumbers, Label: "Normalize numerical values", Description: "Scale values to 0-1 range"},
	{ID: RemoveOutliers, Label: "Remove statistical outliers", Description: "Filter extreme values using IQR method"},
	{ID: StandardizeFormat, Label: "Standardize data format", Description: "Ensure consistent data types", Default: true, NoOp: true},
	{ID: AggregateDuplicates, Label: "Aggregate duplicate entries", Description: "Combine similar measurements", NoOp: true},
}

// order is the fixed application order.
var order = []Option{RemoveNulls, RemoveOutliers, NormalizeNumbers, StandardizeFormat, AggregateDuplicates}

// DefaultOptions returns the options selected by default.
func DefaultOptions() []Option {
	var out []Option
	for _, o := range Catalog {
		if o.Default {
			out = append(out, o.ID)
		}
	}
	return Canonical(out)
}

// Valid reports whether o is in the catalog.
func (o Option) Valid() bool {
	for _, c := range Catalog {
		if c.ID == o {
			return true
		}
	}
	return false
}

// Info returns the catalog entry for o.
func (o Option) Info() (OptionInfo, bool) {
	for _, c := range Catalog {
		if c.ID == o {
			return c, true
		}
	}
	return OptionInfo{}, false
}

// ParseOptions validates identifiers and returns them deduplicated in
// application order. Comma-separated entries are split.
func ParseOptions(ids []string) ([]Option, error) {
	var out []Option
	for _, raw := range ids {
		for _, id := range strings.Split(raw, ",") {
			id = strings.ToLower(strings.TrimSpace(id))
			if id == "" {
				continue
			}
			o := Option(id)
			if !o.Valid() {
				return nil, fmt.Errorf("%w: %q", ErrUnknownOption, id)
			}
			out = append(out, o)
		}
	}
	return Canonical(out), nil
}

// Canonical deduplicates opts and sorts them into application order.
// Unknown options are dropped.
func Canonical(opts []Option) []Option {
	set := make(map[Option]bool, len(opts))
	for _, o := range opts {
		set[o] = true
	}
	out := make([]Option, 0, len(set))
	for _, o := range order {
		if set[o] {
			out = append(out, o)
		}
	}
	return out
}
