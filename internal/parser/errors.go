package parser

import (
	"errors"
	"fmt"
)

// ErrParse matches every *ParseError via errors.Is.
var ErrParse = errors.New("parse error")

// ParseError reports content that does not conform to its format.
type ParseError struct {
	File   string
	Format string
	// Line is 1-based; 0 when unknown.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "parse error"
	}
	loc := e.File
	if loc == "" {
		loc = e.Format
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse %s (line %d): %v", loc, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", loc, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
