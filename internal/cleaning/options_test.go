package cleaning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	got, err := ParseOptions([]string{"normalize_numbers, REMOVE_NULLS", "remove_nulls", ""})
	require.NoError(t, err)
	assert.Equal(t, []Option{RemoveNulls, NormalizeNumbers}, got)
}

func TestParseOptionsUnknown(t *testing.T) {
	_, err := ParseOptions([]string{"remove_nulls", "fourier"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOption))
	assert.Contains(t, err.Error(), "fourier")
}

func TestDefaultOptions(t *testing.T) {
	assert.Equal(t, []Option{RemoveNulls, StandardizeFormat}, DefaultOptions())
}

func TestCatalogCoversSteps(t *testing.T) {
	require.Len(t, Catalog, len(order))
	for _, c := range Catalog {
		_, ok := steps[c.ID]
		assert.True(t, ok, "no step for %s", c.ID)
		info, ok := c.ID.Info()
		assert.True(t, ok)
		assert.NotEmpty(t, info.Label)
	}
}
