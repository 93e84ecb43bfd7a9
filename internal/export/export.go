// Package export serializes tables for download. Serialization is pure: the
// caller decides where the bytes go.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/qdata-clean/internal/analysis"
	"github.com/KaramelBytes/qdata-clean/internal/table"
	"github.com/KaramelBytes/qdata-clean/internal/utils"
)

// Format is an export target.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
	PNG  Format = "png"
)

var (
	// ErrUnknownFormat is returned for formats outside the catalog.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrExternalFormat is returned for formats produced by an external
	// encoder that this package does not implement.
	ErrExternalFormat = errors.New("export format requires an external encoder")
)

// FormatInfo describes a catalog entry.
type FormatInfo struct {
	ID          Format `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	External    bool   `json:"external"`
}

// Formats lists every export format.
var Formats = []FormatInfo{
	{ID: CSV, Label: "CSV", Description: "Comma-separated values"},
	{ID: JSON, Label: "JSON", Description: "JavaScript Object Notation"},
	{ID: XLSX, Label: "Excel", Description: "Microsoft Excel format", External: true},
	{ID: PNG, Label: "Chart Image", Description: "Visualization as PNG", External: true},
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, fi := range Formats {
		if fi.ID == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Options controls what is written.
type Options struct {
	IncludeMetadata   bool `json:"include_metadata"`
	IncludeStatistics bool `json:"include_statistics"`
	Compress          bool `json:"compress_output"`
}

// DefaultOptions includes metadata only.
func DefaultOptions() Options { return Options{IncludeMetadata: true} }

// OptionInfo describes an export toggle for display.
type OptionInfo struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

// OptionCatalog lists the export toggles.
var OptionCatalog = []OptionInfo{
	{ID: "include_metadata", Label: "Include metadata", Description: "Add processing information", Default: true},
	{ID: "include_statistics", Label: "Include statistics", Description: "Add statistical summary"},
	{ID: "compress_output", Label: "Compress output", Description: "Reduce file size"},
}

// Document is the table being exported and its provenance.
type Document struct {
	Name      string
	Table     *table.Table
	Processed bool
	// ExportedAt stamps metadata; zero means now.
	ExportedAt time.Time
}

// Metadata is the provenance block of a JSON export.
type Metadata struct {
	OriginalFile string `json:"originalFile"`
	ProcessedAt  string `json:"processedAt"`
	RecordCount  int    `json:"recordCount"`
	Processed    bool   `json:"processed"`
}

// Statistics is the optional statistical summary.
type Statistics struct {
	QualityScore int                      `json:"qualityScore"`
	Columns      []analysis.ColumnProfile `json:"columns"`
	Summary      []analysis.SummaryStats  `json:"summary"`
}

type envelope struct {
	Metadata   *Metadata    `json:"metadata,omitempty"`
	Statistics *Statistics  `json:"statistics,omitempty"`
	Data       *table.Table `json:"data,omitempty"`
}

// Serialize renders doc in the given format.
func Serialize(doc Document, format Format, opt Options) ([]byte, error) {
	if doc.ExportedAt.IsZero() {
		doc.ExportedAt = time.Now()
	}
	if doc.Table == nil {
		doc.Table = table.New(nil)
	}
	var (
		data []byte
		err  error
	)
	switch format {
	case CSV:
		data = encodeCSV(doc.Table)
	case JSON:
		data, err = encodeJSON(doc, opt)
	case XLSX, PNG:
		return nil, fmt.Errorf("%w: %s", ErrExternalFormat, format)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if !opt.Compress {
		return data, nil
	}
	return compress(doc, format, opt, data)
}

// encodeCSV writes the first row's keys as header and one line per row.
// Fields are not quoted.
func encodeCSV(t *table.Table) []byte {
	cols := t.Columns()
	if len(cols) == 0 {
		return []byte{}
	}
	lines := make([]string, 0, t.Len()+1)
	lines = append(lines, strings.Join(cols, ","))
	fields := make([]string, len(cols))
	for _, r := range t.Rows() {
		for i, c := range cols {
			fields[i] = r.Get(c).Text()
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return []byte(strings.Join(lines, "\n"))
}

func encodeJSON(doc Document, opt Options) ([]byte, error) {
	var v any = doc.Table
	if opt.IncludeMetadata || opt.IncludeStatistics {
		v = sidecar(doc, opt, true)
	}
	return utils.PrettyJSON(v)
}

func sidecar(doc Document, opt Options, withData bool) envelope {
	var env envelope
	if opt.IncludeMetadata {
		env.Metadata = &Metadata{
			OriginalFile: doc.Name,
			ProcessedAt:  doc.ExportedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
			RecordCount:  doc.Table.Len(),
			Processed:    doc.Processed,
		}
	}
	if opt.IncludeStatistics {
		cols := analysis.Profile(doc.Table)
		sum := analysis.SummarizeAll(doc.Table)
		if sum == nil {
			sum = []analysis.SummaryStats{}
		}
		env.Statistics = &Statistics{QualityScore: analysis.QualityScore(doc.Table), Columns: cols, Summary: sum}
	}
	if withData {
		env.Data = doc.Table
	}
	return env
}

