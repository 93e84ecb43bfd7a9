package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/qdata-clean/internal/table"
)

type jsonParser struct{}

func (jsonParser) Format() string { return "json" }

func (jsonParser) CanParse(filename string) bool { return hasExt(filename, ".json") }

// Parse accepts an array of objects or a single object, which becomes a
// one-row table.
func (jsonParser) Parse(content []byte) (*table.Table, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, &ParseError{Format: "json", Err: errors.New("empty document")}
	}
	dec := json.NewDecoder(bytes.NewReader(content))
	var doc json.RawMessage
	if err := dec.Decode(&doc); err != nil {
		return nil, jsonError(content, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		line := lineAt(content, int(dec.InputOffset()))
		return nil, &ParseError{Format: "json", Line: line, Err: errors.New("unexpected data after top-level value")}
	}

	doc = bytes.TrimSpace(doc)
	switch doc[0] {
	case '{':
		var r table.Row
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, &ParseError{Format: "json", Err: err}
		}
		return table.New([]table.Row{r}), nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(doc, &elems); err != nil {
			return nil, &ParseError{Format: "json", Err: err}
		}
		rows := make([]table.Row, 0, len(elems))
		for i, el := range elems {
			el = bytes.TrimSpace(el)
			if len(el) == 0 || el[0] != '{' {
				return nil, &ParseError{Format: "json", Err: fmt.Errorf("element %d is not an object", i)}
			}
			var r table.Row
			if err := json.Unmarshal(el, &r); err != nil {
				return nil, &ParseError{Format: "json", Err: fmt.Errorf("element %d: %w", i, err)}
			}
			rows = append(rows, r)
		}
		return table.New(rows), nil
	default:
		return nil, &ParseError{Format: "json", Err: errors.New("top-level value must be an object or an array of objects")}
	}
}

func jsonError(content []byte, err error) error {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &ParseError{Format: "json", Line: lineAt(content, int(se.Offset)), Err: err}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &ParseError{Format: "json", Err: errors.New("unexpected end of input")}
	}
	return &ParseError{Format: "json", Err: err}
}

func lineAt(content []byte, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
