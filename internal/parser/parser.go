package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/qdata-clean/internal/table"
)

// Parser turns raw file content into a table.
type Parser interface {
	// Format is the short format name, e.g. "csv".
	Format() string
	CanParse(filename string) bool
	Parse(content []byte) (*table.Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

func init() {
	Register(csvParser{})
	Register(jsonParser{})
}

// ErrUnsupportedFormat is returned for file names no parser accepts.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Lookup returns the parser that accepts fileName.
func Lookup(fileName string) (Parser, error) {
	for _, p := range registry {
		if p.CanParse(fileName) {
			return p, nil
		}
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = "(none)"
	}
	return nil, fmt.Errorf("%w: %s (extension %s; supported: %s)", ErrUnsupportedFormat, fileName, ext, strings.Join(Supported(), ", "))
}

// Parse selects a parser by file extension and parses content. Parse errors
// are returned as *ParseError carrying the file name.
func Parse(fileName string, content []byte) (*table.Table, error) {
	p, err := Lookup(fileName)
	if err != nil {
		return nil, err
	}
	t, err := p.Parse(content)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.File = fileName
			return nil, pe
		}
		return nil, &ParseError{File: fileName, Format: p.Format(), Err: err}
	}
	return t, nil
}

// ParseFile reads a file from disk and parses it.
func ParseFile(path string) (*table.Table, error) {
	if _, err := Lookup(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(filepath.Base(path), data)
}

// Supported lists accepted extensions.
func Supported() []string {
	out := make([]string, 0, len(registry))
	for _, p := range registry {
		out = append(out, "."+p.Format())
	}
	return out
}

func hasExt(filename, ext string) bool {
	return strings.EqualFold(filepath.Ext(filename), ext)
}
