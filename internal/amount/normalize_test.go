package amount_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selectt/autofacture-extractor/internal/amount"
	"github.com/selectt/autofacture-extractor/internal/common"
)

func TestNormalizeDocumentedFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		// the three canonical examples
		{"12,942.38", "12942.38"},
		{"235.62", "235.62"},
		{"1059,61", "1059.61"},

		// thousands grouping, one glyph type
		{"1,234", "1234"},
		{"1.234", "1234"},
		{"1.234.567", "1234567"},
		{"12,345,678", "12345678"},

		// decimal separator, one glyph type
		{"0,5", "0.5"},
		{"0.00", "0"},
		{"7,25", "7.25"},

		// both glyph types, either orientation
		{"1.059,61", "1059.61"},
		{"12,942.38", "12942.38"},

		// no separator
		{"1059", "1059"},
		{"0", "0"},
	}
	for _, tc := range cases {
		got, err := amount.Normalize(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got.String(), "input %q", tc.in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"235.62", "12942.38", "1059.61", "1234", "0.5"} {
		once, err := amount.Normalize(s)
		require.NoError(t, err)
		twice, err := amount.Normalize(once.String())
		require.NoError(t, err)
		assert.True(t, once.Equal(twice), "normalizing %q twice changed the value", s)
	}
}

func TestNormalizeExactness(t *testing.T) {
	// No floating-point drift: string round-trips exactly.
	got, err := amount.Normalize("12,942.38")
	require.NoError(t, err)
	assert.Equal(t, "12942.38", got.String())
	assert.Equal(t, "12942.380", got.StringFixed(3))
}

func TestNormalizeRejectsUncoveredLayouts(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"abc",
		"12a.30",
		"1,23,45",    // repeated glyph, groups not all 3 digits
		"1,059,61",   // trailing 2-digit group after 3-digit group
		"1.2345",     // single glyph, 4 trailing digits
		"12..34",     // empty group
		",50",        // leading separator
		"50,",        // trailing separator
		"12.34,56.1", // two decimal glyphs after resolving the rightmost
	}
	for _, in := range cases {
		_, err := amount.Normalize(in)
		require.Error(t, err, "input %q", in)
		var perr *common.AmountParseError
		assert.True(t, errors.As(err, &perr), "input %q: want AmountParseError, got %T", in, err)
	}
}
