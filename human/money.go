package human

import (
	"math"
	"strconv"
	"strings"
)

// Nudges amounts like 1.005, which are stored a hair below their written
// value, into rounding up.
const centsRounding = 0.50000000001

// Formats an amount of money with its whole part grouped in threes by
// commas. The cents are only included when withCents is set. NaN is
// treated as zero.
//
// The sign is taken before rounding so a small negative amount keeps its
// minus sign even when it rounds to zero (-0).
func Money(v float64, withCents bool) string {
	if math.IsNaN(v) {
		v = 0
	}
	negative := v < 0
	total := math.Floor(math.Abs(v)*100 + centsRounding)
	cents := int(math.Mod(total, 100))
	whole := strconv.FormatFloat(math.Floor(total/100), 'f', 0, 64)

	b := strings.Builder{}
	b.Grow(len(whole) + len(whole)/3 + 4)
	if negative {
		b.WriteByte('-')
	}
	lead := len(whole) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(whole[:lead])
	for i := lead; i < len(whole); i += 3 {
		b.WriteByte(',')
		b.WriteString(whole[i : i+3])
	}
	if withCents {
		b.WriteByte('.')
		if cents < 10 {
			b.WriteByte('0')
		}
		b.WriteString(strconv.Itoa(cents))
	}
	return b.String()
}
