package parser

import (
	"errors"
	"strings"

	"github.com/KaramelBytes/qdata-clean/internal/table"
)

type csvParser struct{}

func (csvParser) Format() string { return "csv" }

func (csvParser) CanParse(filename string) bool { return hasExt(filename, ".csv") }

// Parse splits on newlines and commas without quote handling: a quoted field
// containing a comma is split. Blank lines are skipped, short rows are padded
// with empty cells and surplus fields are dropped.
func (csvParser) Parse(content []byte) (*table.Table, error) {
	var lines []string
	for _, l := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, &ParseError{Format: "csv", Err: errors.New("no header line")}
	}

	header := splitTrim(lines[0])
	rows := make([]table.Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitTrim(line)
		vals := make([]table.Value, len(header))
		for i := range header {
			if i < len(fields) {
				vals[i] = table.String(fields[i])
			}
		}
		rows = append(rows, table.MakeRow(header, vals))
	}
	return table.New(rows), nil
}

func splitTrim(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
