package utils

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceInt(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want int
	}{
		{"int", 3, 3},
		{"float64", float64(500000), 500000},
		{"fractional float truncates", 2.9, 2},
		{"numeric string", "500000", 500000},
		{"padded string", "  42 ", 42},
		{"fractional string", "1.5", 1},
		{"json number", json.Number("7"), 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CoerceInt(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCoerceInt_Errors(t *testing.T) {
	_, err := CoerceInt(nil)
	assert.True(t, errors.Is(err, ErrMissingValue))

	_, err = CoerceInt("   ")
	assert.True(t, errors.Is(err, ErrMissingValue))

	_, err = CoerceInt("lots")
	assert.True(t, errors.Is(err, ErrNotNumeric))

	_, err = CoerceInt(true)
	assert.True(t, errors.Is(err, ErrNotNumeric))

	_, err = CoerceInt(1e300)
	assert.True(t, errors.Is(err, ErrNotNumeric))
}

func TestParseQueryInt(t *testing.T) {
	got, ok := ParseQueryInt("")
	assert.Nil(t, got)
	assert.True(t, ok)

	got, ok = ParseQueryInt("abc")
	assert.Nil(t, got)
	assert.False(t, ok)

	got, ok = ParseQueryInt(" 3 ")
	assert.True(t, ok)
	if assert.NotNil(t, got) {
		assert.Equal(t, 3, *got)
	}
}
