package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/qdata-clean/internal/parser"
	"github.com/KaramelBytes/qdata-clean/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_SingleObject(t *testing.T) {
	tb, err := parser.Parse("one.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, 1, tb.Len())
	assert.Equal(t, table.Number, tb.Row(0).Get("a").Kind())
}

func TestParseJSON_Array(t *testing.T) {
	tb, err := parser.Parse("many.json", []byte(`[{"a":1},{"a":2}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Len())
}

func TestParseJSON_EmptyArray(t *testing.T) {
	tb, err := parser.Parse("none.json", []byte(" [] "))
	require.NoError(t, err)
	assert.Equal(t, 0, tb.Len())
}

func TestParseJSON_KeyOrder(t *testing.T) {
	tb, err := parser.Parse("o.json", []byte(`[{"z":1,"a":2,"m":3}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, tb.Columns())
}

func TestParseJSON_Malformed(t *testing.T) {
	cases := map[string]string{
		"syntax":      "[{\"a\":1},\n{\"a\":}]",
		"scalar":      `42`,
		"string":      `"hello"`,
		"mixed array": `[{"a":1}, 2]`,
		"nested null": `[null]`,
		"trailing":    `{"a":1} {"a":2}`,
		"truncated":   `[{"a":1}`,
		"blank":       "  \n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse("bad.json", []byte(content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, parser.ErrParse), "got %v", err)
		})
	}
}

func TestParseJSON_SyntaxErrorLine(t *testing.T) {
	_, err := parser.Parse("bad.json", []byte("[{\"a\":1},\n{\"a\":}]"))
	var pe *parser.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "json", pe.Format)
}

func TestParseUnsupportedFormat(t *testing.T) {
	for _, name := range []string{"data.xlsx", "notes.txt", "noext"} {
		_, err := parser.Parse(name, []byte("a,b\n1,2"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, parser.ErrUnsupportedFormat), name)
		assert.False(t, errors.Is(err, parser.ErrParse), name)
	}
}

func TestParseFileUnsupportedSkipsRead(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "missing.docx")
	_, err := parser.ParseFile(p)
	assert.True(t, errors.Is(err, parser.ErrUnsupportedFormat))
}

func TestParseFileJSON(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "jobs.json")
	require.NoError(t, os.WriteFile(p, []byte(`[{"job":"a","shots":100},{"job":"b","shots":null}]`), 0o644))
	tb, err := parser.ParseFile(p)
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Len())
	assert.True(t, tb.Row(1).Get("shots").IsNull())
}

func TestSupported(t *testing.T) {
	assert.ElementsMatch(t, []string{".csv", ".json"}, parser.Supported())
}
