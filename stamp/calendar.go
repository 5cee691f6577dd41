package stamp

import (
	"math"
)

var (
	monthNames = [13]string{
		"",
		"January",
		"February",
		"March",
		"April",
		"May",
		"June",
		"July",
		"August",
		"September",
		"October",
		"November",
		"December",
	}
	weekdayNames = [7]string{
		"Sunday",
		"Monday",
		"Tuesday",
		"Wednesday",
		"Thursday",
		"Friday",
		"Saturday",
	}
)

// Every four years, except every hundred, except every four hundred.
func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Returns 1 for leap years and 0 otherwise so it can be used in day math.
func leapDays(year int) int {
	if isLeap(year) {
		return 1
	}
	return 0
}

func daysInMonth(year, month int) int {
	switch {
	case month == 2:
		return 28 + leapDays(year)
	case month&1 == 1 && month < 8:
		return 31
	case month&1 == 0 && month > 7:
		return 31
	default:
		return 30
	}
}

func ordinalSuffix(day int) string {
	switch day {
	case 1, 21, 31:
		return "st"
	case 2, 22:
		return "nd"
	case 3, 23:
		return "rd"
	default:
		return "th"
	}
}

// Converts a 0-23 hour into 1-12.
func hour12(hour int) int {
	if h := hour % 12; h != 0 {
		return h
	}
	return 12
}

// The position of a weekday in a week that starts on Monday (Monday is 0,
// Sunday is 6).
func mondayIndex(weekday int) int {
	if weekday == 0 {
		return 6
	}
	return weekday - 1
}

// The Monday based position of January 1st of the instant's year. Days of
// the year are contiguous so this can be worked out backwards from the
// instant's own weekday without resolving another date.
func firstDayIndex(in *Instant) int {
	jan1 := (in.weekday - in.yearDay%7 + 7) % 7
	return mondayIndex(jan1)
}

// Reports whether the instant sits in the first days of January that are
// counted as part of the last week of the previous year. This can only be
// true when the day of the year is 2 or lower, so it is never true for
// December 31st which keeps weekNumber from recursing more than once.
func crossesYear(in *Instant) bool {
	z := in.yearDay
	nd := firstDayIndex(in)
	return z <= 2 && nd >= 4 && z >= 6-nd
}

// Works out the week of the year. This is close to, but intentionally not
// exactly, ISO-8601 week numbering; existing output depends on the
// differences in the first days of January.
func weekNumber(in *Instant) int {
	z := in.yearDay
	b := 364 + leapDays(in.year) - z
	nd := firstDayIndex(in)
	switch {
	case b <= 2 && mondayIndex(in.weekday) <= 2-b:
		return 1
	case crossesYear(in):
		r := Resolver{Location: in.loc}
		last := r.Date(in.year-1, 12, 31)
		return weekNumber(&last)
	case nd <= 3:
		return 1 + floorDiv(z+nd, 7)
	default:
		// Can be 0 for the first days of a year starting on a Friday or
		// Saturday.
		return 1 + floorDiv(z-(7-nd), 7)
	}
}

// Integer division rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Swatch internet time. The arithmetic (including the chance of returning
// 1000) is kept exactly as callers have always seen it.
func beat(in *Instant) int {
	off := (-in.offset + 60) * 60
	secs := in.hour*3600 + in.minute*60 + in.second + off
	b := int(math.Floor(float64(secs) / 86.4))
	if b > 1000 {
		b -= 1000
	}
	if b < 0 {
		b += 1000
	}
	return b
}

// Rounds milliseconds to the nearest whole second, with halves rounding
// up.
func roundSeconds(ms int64) int64 {
	ms += 500
	s := ms / 1000
	if ms%1000 < 0 {
		s--
	}
	return s
}
