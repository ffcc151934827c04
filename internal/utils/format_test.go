package utils

import (
	"testing" // Testing package

	"github.com/stretchr/testify/assert" // Assertion library
)

// TestFormatSatsValue checks the display formatting across all ranges
func TestFormatSatsValue(t *testing.T) {
	cases := []struct {
		value int64
		want  string
	}{
		{0, "0 sats"},            // Zero
		{1, "1 sats"},            // Smallest positive
		{999, "999 sats"},        // Largest un-abbreviated value
		{1000, "1k sats"},        // Whole thousand
		{1500, "1.5k sats"},      // Fractional thousand
		{10000, "10k sats"},      // Whole tens of thousands
		{999999, "1000.0k sats"}, // Rounds up inside the k range
		{1000000, "1M sats"},     // Whole million
		{1234567, "1.2M sats"},   // Fractional million
		{1500000, "1.5M sats"},   // Fractional million
		{10000000, "10M sats"},   // Whole tens of millions
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatSatsValue(tc.value), "value %d", tc.value)
	}
}
