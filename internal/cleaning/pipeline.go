// Package cleaning applies the selectable cleaning steps to a table.
//
// Steps always run in a fixed order (remove_nulls, remove_outliers,
// normalize_numbers, standardize_format, aggregate_duplicates) regardless of
// how the caller lists them. A run either returns a new table with every
// selected step applied or a *StepError naming the failing step; the input
// table is never modified.
package cleaning

import (
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/qdata-clean/internal/table"
)

// OutlierMethod selects how remove_outliers trims rows.
type OutlierMethod string

const (
	// OutlierIQR drops rows with a value outside a numeric column's Tukey fences.
	OutlierIQR OutlierMethod = "iqr"
	// OutlierTruncate keeps the leading TruncateKeep share of rows.
	OutlierTruncate OutlierMethod = "truncate"
)

// Config tunes step behavior.
type Config struct {
	OutlierMethod     OutlierMethod
	IQRMultiplier     float64
	MinOutlierSamples int
	TruncateKeep      float64
	// NormalizeStrict fails normalize_numbers on a constant column instead
	// of scaling it to 0.
	NormalizeStrict bool
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		OutlierMethod:     OutlierIQR,
		IQRMultiplier:     1.5,
		MinOutlierSamples: 4,
		TruncateKeep:      0.95,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.OutlierMethod {
	case OutlierIQR, OutlierTruncate:
	default:
		return fmt.Errorf("invalid outlier method %q (use iqr or truncate)", c.OutlierMethod)
	}
	if c.IQRMultiplier <= 0 {
		return fmt.Errorf("iqr multiplier must be positive, got %g", c.IQRMultiplier)
	}
	if c.TruncateKeep <= 0 || c.TruncateKeep > 1 {
		return fmt.Errorf("truncate keep ratio must be in (0,1], got %g", c.TruncateKeep)
	}
	return nil
}

// StepResult records one applied step.
type StepResult struct {
	Option  Option   `json:"option"`
	RowsIn  int      `json:"rows_in"`
	RowsOut int      `json:"rows_out"`
	Columns []string `json:"columns,omitempty"`
}

// Dropped returns the number of rows the step removed.
func (s StepResult) Dropped() int { return s.RowsIn - s.RowsOut }

// Result is the output of a successful run.
type Result struct {
	Table   *table.Table
	Applied []Option
	Steps   []StepResult
}

// Pipeline runs cleaning steps with a fixed configuration.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New returns a pipeline. A nil logger discards output.
func New(cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.MinOutlierSamples <= 0 {
		cfg.MinOutlierSamples = DefaultConfig().MinOutlierSamples
	}
	if cfg.TruncateKeep == 0 {
		cfg.TruncateKeep = DefaultConfig().TruncateKeep
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Run applies opts to t in the fixed order.
func (p *Pipeline) Run(t *table.Table, opts []Option) (*Result, error) {
	for _, o := range opts {
		if !o.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOption, o)
		}
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if t == nil {
		t = table.New(nil)
	}

	res := &Result{Table: t, Applied: Canonical(opts)}
	for _, o := range res.Applied {
		in := res.Table
		out, cols, err := steps[o](p, in)
		if err != nil {
			p.logger.Debug("cleaning step failed", "option", o, "error", err)
			return nil, &StepError{Option: o, Err: err}
		}
		sr := StepResult{Option: o, RowsIn: in.Len(), RowsOut: out.Len(), Columns: cols}
		p.logger.Debug("cleaning step", "option", o, "rows_in", sr.RowsIn, "rows_out", sr.RowsOut)
		res.Steps = append(res.Steps, sr)
		res.Table = out
	}
	return res, nil
}

// Clean runs opts with the default configuration.
func Clean(t *table.Table, opts []Option) (*table.Table, error) {
	res, err := New(DefaultConfig(), nil).Run(t, opts)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}
