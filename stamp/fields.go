package stamp

import (
	"strconv"
	"strings"
)

// Appends the value of one directive for the given instant.
type field func(in *Instant, out *strings.Builder)

// A directive and the largest number of bytes it is expected to render.
// The size is only a hint used to preallocate output.
type directive struct {
	size   int
	format field
}

// Every supported directive letter. Anything that is not in here is copied
// to the output as is.
var fields = map[rune]directive{
	// Day
	'd': {2, formatDayZero},
	'D': {3, formatWeekdayAbbreviatedName},
	'j': {2, formatDay},
	'l': {9, formatWeekdayName},
	'N': {1, formatWeekdayNumber},
	'S': {2, formatOrdinalSuffix},
	'w': {1, formatWeekdayNumberZeroStart},
	'z': {3, formatYearDay},

	// Week
	'W': {2, formatWeek},

	// Month
	'F': {9, formatMonthName},
	'm': {2, formatMonthZero},
	'M': {3, formatMonthAbbreviatedName},
	'n': {2, formatMonth},
	't': {2, formatMonthDays},

	// Year
	'L': {1, formatLeapYear},
	'Y': {4, formatYear},
	'y': {2, formatYearOfCentury},

	// Time
	'a': {2, formatAMPMLower},
	'A': {2, formatAMPM},
	'B': {4, formatBeat},
	'g': {2, formatHourAMPM},
	'G': {2, formatHour},
	'h': {2, formatHourAMPMZero},
	'H': {2, formatHourZero},
	'i': {2, formatMinuteZero},
	's': {2, formatSecondZero},

	// Timezone
	'O': {5, formatOffset},
	'P': {6, formatOffsetColon},

	// Full date/time
	'c': {25, formatFull},
	'U': {12, formatEpoch},
}

// Writes n into out with its digits zero padded to at least width. A
// negative number gets its sign ahead of the padding.
func writePadded(out *strings.Builder, n int, width int) {
	if n < 0 {
		out.WriteByte('-')
		n = -n
	}
	s := strconv.Itoa(n)
	for i := len(s); i < width; i++ {
		out.WriteByte('0')
	}
	out.WriteString(s)
}

// Appends either AM or PM depending on the time.
func formatAMPM(in *Instant, out *strings.Builder) {
	if in.hour < 12 {
		out.WriteString("AM")
	} else {
		out.WriteString("PM")
	}
}

// Appends either am or pm depending on the time.
func formatAMPMLower(in *Instant, out *strings.Builder) {
	if in.hour < 12 {
		out.WriteString("am")
	} else {
		out.WriteString("pm")
	}
}

// Appends swatch internet time (000 - 1000).
func formatBeat(in *Instant, out *strings.Builder) {
	writePadded(out, beat(in), 3)
}

// Appends the day of the month.
func formatDay(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.Itoa(in.day))
}

// Appends the day of the month zero padded.
func formatDayZero(in *Instant, out *strings.Builder) {
	writePadded(out, in.day, 2)
}

// Appends the number of seconds elapsed since 1970/1/1.
func formatEpoch(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.FormatInt(roundSeconds(in.millis), 10))
}

// Appends Y-m-dTh:i:sP, for example 2016-12-31T12:13:00+08:00. The hour
// is the 12 hour form.
func formatFull(in *Instant, out *strings.Builder) {
	formatYear(in, out)
	out.WriteByte('-')
	formatMonthZero(in, out)
	out.WriteByte('-')
	formatDayZero(in, out)
	out.WriteByte('T')
	formatHourAMPMZero(in, out)
	out.WriteByte(':')
	formatMinuteZero(in, out)
	out.WriteByte(':')
	formatSecondZero(in, out)
	formatOffsetColon(in, out)
}

// Appends the hour of the day.
func formatHour(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.Itoa(in.hour))
}

// Appends the hour of the day zero padded.
func formatHourZero(in *Instant, out *strings.Builder) {
	writePadded(out, in.hour, 2)
}

// Appends the hour of the day in am/pm format.
func formatHourAMPM(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.Itoa(hour12(in.hour)))
}

// Appends the hour of the day in am/pm format zero padded.
func formatHourAMPMZero(in *Instant, out *strings.Builder) {
	writePadded(out, hour12(in.hour), 2)
}

// Appends 1 for leap years, 0 otherwise.
func formatLeapYear(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.Itoa(leapDays(in.year)))
}

// Appends the minute of the hour zero padded.
func formatMinuteZero(in *Instant, out *strings.Builder) {
	writePadded(out, in.minute, 2)
}

// Appends the month as a number.
func formatMonth(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.Itoa(in.month))
}

// Appends the month as a zero padded number.
func formatMonthZero(in *Instant, out *strings.Builder) {
	writePadded(out, in.month, 2)
}

// Appends the month name (January, February, etc.)
func formatMonthName(in *Instant, out *strings.Builder) {
	out.WriteString(monthNames[in.month])
}

// Appends the abbreviated month name (Jan, Feb, etc.)
func formatMonthAbbreviatedName(in *Instant, out *strings.Builder) {
	out.WriteString(monthNames[in.month][:3])
}

// Appends the number of days in the month (28 - 31).
func formatMonthDays(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.Itoa(daysInMonth(in.year, in.month)))
}

// Appends the UTC offset as +HHMM. Zones west of UTC are negative.
func formatOffset(in *Instant, out *strings.Builder) {
	writeOffset(in, out, false)
}

// Appends the UTC offset as +HH:MM.
func formatOffsetColon(in *Instant, out *strings.Builder) {
	writeOffset(in, out, true)
}

func writeOffset(in *Instant, out *strings.Builder, colon bool) {
	minutes := in.offset
	if minutes < 0 {
		out.WriteByte('-')
		minutes = -minutes
	} else {
		out.WriteByte('+')
	}
	writePadded(out, minutes/60, 2)
	if colon {
		out.WriteByte(':')
	}
	writePadded(out, minutes%60, 2)
}

// Appends the English ordinal suffix for the day of the month.
func formatOrdinalSuffix(in *Instant, out *strings.Builder) {
	out.WriteString(ordinalSuffix(in.day))
}

// Appends the second of the minute zero padded.
func formatSecondZero(in *Instant, out *strings.Builder) {
	writePadded(out, in.second, 2)
}

// Appends the week of the year.
func formatWeek(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.Itoa(weekNumber(in)))
}

// Appends the weekday name (Sunday, Monday, ...)
func formatWeekdayName(in *Instant, out *strings.Builder) {
	out.WriteString(weekdayNames[in.weekday])
}

// Appends the abbreviated weekday name (Sun, Mon, ...)
func formatWeekdayAbbreviatedName(in *Instant, out *strings.Builder) {
	out.WriteString(weekdayNames[in.weekday][:3])
}

// Appends the weekday as a number (1 .. 7) starting from Sunday.
func formatWeekdayNumber(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.Itoa(in.weekday + 1))
}

// Appends the weekday as a number (0 .. 6)
func formatWeekdayNumberZeroStart(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.Itoa(in.weekday))
}

// Appends the year zero padded to four digits.
func formatYear(in *Instant, out *strings.Builder) {
	writePadded(out, in.year, 4)
}

// Appends Y without its first two characters (16 for 2016).
func formatYearOfCentury(in *Instant, out *strings.Builder) {
	year := strings.Builder{}
	formatYear(in, &year)
	out.WriteString(year.String()[2:])
}

// Appends the day of the year starting from 0.
func formatYearDay(in *Instant, out *strings.Builder) {
	out.WriteString(strconv.Itoa(in.yearDay))
}
