package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/qdata-clean/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_RowsAndColumnOrder(t *testing.T) {
	content := "shots, qubit ,fidelity\n" +
		"1024,q0,0.98\n" +
		"\n" +
		"   \n" +
		"2048,q1,0.97\n" +
		"4096,q2,0.95\n"
	tb, err := parser.Parse("run.csv", []byte(content))
	require.NoError(t, err)
	// non-empty lines minus header
	assert.Equal(t, 3, tb.Len())
	assert.Equal(t, []string{"shots", "qubit", "fidelity"}, tb.Columns())
	assert.Equal(t, "q1", tb.Row(1).Get("qubit").Text())
}

func TestParseCSV_ShortAndLongRows(t *testing.T) {
	tb, err := parser.Parse("x.CSV", []byte("a,b,c\n1\n1,2,3,4,5\n"))
	require.NoError(t, err)
	require.Equal(t, 2, tb.Len())

	short := tb.Row(0)
	assert.Equal(t, []string{"a", "b", "c"}, short.Keys())
	assert.True(t, short.Get("b").IsMissing())
	assert.True(t, short.Get("c").IsMissing())

	long := tb.Row(1)
	assert.Equal(t, 3, long.Len())
	assert.Equal(t, "3", long.Get("c").Text())
}

func TestParseCSV_NoQuoteHandling(t *testing.T) {
	tb, err := parser.Parse("q.csv", []byte("name,value\n\"a,b\",1\n"))
	require.NoError(t, err)
	assert.Equal(t, `"a`, tb.Row(0).Get("name").Text())
	assert.Equal(t, `b"`, tb.Row(0).Get("value").Text())
}

func TestParseCSV_CRLF(t *testing.T) {
	tb, err := parser.Parse("w.csv", []byte("a,b\r\n1,2\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tb.Columns())
	assert.Equal(t, "2", tb.Row(0).Get("b").Text())
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	tb, err := parser.Parse("h.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, tb.Len())
}

func TestParseCSV_Empty(t *testing.T) {
	for _, content := range []string{"", "\n\n", "  \n \t\n"} {
		_, err := parser.Parse("e.csv", []byte(content))
		require.Error(t, err)
		assert.True(t, errors.Is(err, parser.ErrParse))
		var pe *parser.ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "e.csv", pe.File)
	}
}

func TestParseFileCSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "calibration.csv")
	content := "date,backend,t1_us\n" +
		"2024-08-10,ibm_kyiv,120.5\n" +
		"2024-08-12,ibm_kyiv,118.2\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	tb, err := parser.ParseFile(p)
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Len())
}
