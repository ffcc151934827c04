package utils

import (
	"math"    // Floor checks for whole thousands/millions
	"strconv" // Number formatting
)

// FormatSatsValue formats a sats amount for display: 999 -> "999 sats",
// 1500 -> "1.5k sats", 1500000 -> "1.5M sats"
func FormatSatsValue(value int64) string {
	// For values less than 1000, just return the number with "sats"
	if value < 1000 {
		return strconv.FormatInt(value, 10) + " sats"
	}

	// For values of a million or more, format with "M"
	if value >= 1_000_000 {
		valueInM := float64(value) / 1_000_000
		// Whole number of millions (e.g. 1M, 10M)
		if valueInM == math.Floor(valueInM) {
			return strconv.FormatInt(int64(valueInM), 10) + "M sats"
		}
		// Otherwise, show one decimal place
		return strconv.FormatFloat(valueInM, 'f', 1, 64) + "M sats"
	}

	// For values 1000 or greater, format with "k"
	valueInK := float64(value) / 1000
	// Whole number of thousands (e.g. 1k, 10k)
	if valueInK == math.Floor(valueInK) {
		return strconv.FormatInt(int64(valueInK), 10) + "k sats"
	}
	// Otherwise, show one decimal place
	return strconv.FormatFloat(valueInK, 'f', 1, 64) + "k sats"
}
