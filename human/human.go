// Package human renders sizes, counts and money amounts in the short forms
// shown to people in listings (1.5MB, 3.2万, 1,234.00).
package human

import (
	"math"
	"strconv"
)

// The words used around numbers. Every field must be set; callers that
// only want to change one label should start from DefaultLabels.
type Labels struct {
	// Returned by Size for zero bytes.
	Zero string

	// Returned by Size for anything smaller than a kilobyte.
	BelowKilo string

	// Suffixes used by Number for 10^4 and 10^8.
	TenThousand    string
	HundredMillion string
}

// The labels used by the package level functions.
var DefaultLabels = Labels{
	Zero:           "0K",
	BelowKilo:      "小于1K",
	TenThousand:    "万",
	HundredMillion: "亿",
}

// Units walked through by Size, each 1024 times the previous one. TB is
// the largest, anything beyond that is still expressed in TB.
var sizeUnits = [...]string{"KB", "MB", "GB", "TB"}

// A simple wrapper to make formatting easier to parse. Floats are written
// in the shortest form that round trips (1.5, not 1.50).
func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Rounds down to a multiple of 1/scale after nudging v up by half of the
// next digit.
func roundDown(v float64, nudge float64, scale float64) float64 {
	return math.Floor((v+nudge)*scale) / scale
}

// Returns a human readable version of a size in bytes with at most two
// decimal places, for example 1.5MB.
func (l Labels) Size(bytes int64) string {
	switch {
	case bytes == 0:
		return l.Zero
	case bytes < 1024:
		return l.BelowKilo
	}
	v := float64(bytes) / 1024
	for _, unit := range sizeUnits[:len(sizeUnits)-1] {
		if v < 1024 {
			return ftoa(roundDown(v, 0.005, 100)) + unit
		}
		v /= 1024
	}
	return ftoa(roundDown(v, 0.005, 100)) + sizeUnits[len(sizeUnits)-1]
}

// Returns a count with at most one decimal place, folding values of ten
// thousand and above into the TenThousand and HundredMillion units.
func (l Labels) Number(n int64) string {
	if n < 10000 {
		return strconv.FormatInt(n, 10)
	}
	v := roundDown(float64(n)/10000, 0.05, 10)
	if v < 10000 {
		return ftoa(v) + l.TenThousand
	}
	v = roundDown(v/10000, 0.05, 10)
	return ftoa(v) + l.HundredMillion
}

// Download counts are displayed just like any other number.
func (l Labels) Downloads(n int64) string {
	return l.Number(n)
}

// Formats bytes using DefaultLabels.
func Size(bytes int64) string {
	return DefaultLabels.Size(bytes)
}

// Formats n using DefaultLabels.
func Number(n int64) string {
	return DefaultLabels.Number(n)
}

// Formats a download count using DefaultLabels.
func Downloads(n int64) string {
	return DefaultLabels.Downloads(n)
}
