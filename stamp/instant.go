package stamp

import (
	"math"
	"time"
)

const (
	// Timestamps at or below this value are taken to be seconds since the
	// epoch and anything above it milliseconds. This lets callers hand in
	// either unit without having to say which one they are using.
	secondsUpperBound = 9999999999

	// The furthest an instant can be from the epoch, in milliseconds, in
	// either direction.
	maxMillis = 8.64e15
)

// A single point in time with all of the calendar fields that the
// formatter needs already broken out. Instants are values and are never
// modified once resolved.
//
// The zero Instant is invalid. Formatting an invalid Instant yields empty
// strings for every directive.
type Instant struct {
	valid  bool
	millis int64
	loc    *time.Location

	year    int
	month   int
	day     int
	hour    int
	minute  int
	second  int
	weekday int
	yearDay int

	// Minutes east of UTC.
	offset int
}

// Returns true if the instant was resolved from a usable time value.
func (in Instant) Valid() bool {
	return in.valid
}

// The year, for example 2016.
func (in Instant) Year() int {
	return in.year
}

// The month of the year, 1 through 12.
func (in Instant) Month() int {
	return in.month
}

// The day of the month, 1 through 31.
func (in Instant) Day() int {
	return in.day
}

// The hour of the day, 0 through 23.
func (in Instant) Hour() int {
	return in.hour
}

// The minute of the hour.
func (in Instant) Minute() int {
	return in.minute
}

// The second of the minute.
func (in Instant) Second() int {
	return in.second
}

// The day of the week where 0 is Sunday and 6 is Saturday.
func (in Instant) Weekday() int {
	return in.weekday
}

// The day of the year starting from 0 on January 1st.
func (in Instant) YearDay() int {
	return in.yearDay
}

// The offset from UTC in minutes. Zones east of UTC are positive.
func (in Instant) Offset() int {
	return in.offset
}

// Milliseconds since 1970/1/1 00:00:00 UTC.
func (in Instant) UnixMilli() int64 {
	return in.millis
}

// Returns the instant as a time.Time in the location it was resolved in.
// Invalid instants return the zero time.
func (in Instant) Time() time.Time {
	if !in.valid {
		return time.Time{}
	}
	return time.UnixMilli(in.millis).In(in.loc)
}

// Turns caller supplied time values into Instants. The calendar fields
// are always computed in Location, which defaults to the local timezone of
// the process when left nil. A Resolver is safe for concurrent use.
type Resolver struct {
	Location *time.Location
}

// Used by the package level helpers.
var local = &Resolver{}

// Resolves the current wall clock time.
func (r *Resolver) Now() Instant {
	return r.fromMillis(time.Now().UnixMilli())
}

// Resolves an epoch timestamp given in either seconds or milliseconds.
// A zero timestamp is treated as if no timestamp was given at all and
// resolves to the current time. NaN, infinities and values too far from
// the epoch resolve to an invalid Instant.
func (r *Resolver) Epoch(v float64) Instant {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return Instant{}
	case v == 0:
		return r.Now()
	case v <= secondsUpperBound:
		v *= 1000
	}
	v = math.Trunc(v)
	if v > maxMillis || v < -maxMillis {
		return Instant{}
	}
	return r.fromMillis(int64(v))
}

// Resolves an existing time.Time into the resolver's location. The zero
// time resolves to the current time.
func (r *Resolver) Time(t time.Time) Instant {
	if t.IsZero() {
		return r.Now()
	}
	return r.fromMillis(t.UnixMilli())
}

// Resolves midnight at the start of the given calendar date.
func (r *Resolver) Date(year, month, day int) Instant {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, r.location())
	return r.fromMillis(t.UnixMilli())
}

func (r *Resolver) location() *time.Location {
	if r == nil || r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r *Resolver) fromMillis(ms int64) Instant {
	loc := r.location()
	t := time.UnixMilli(ms).In(loc)
	_, offset := t.Zone()
	return Instant{
		valid:   true,
		millis:  ms,
		loc:     loc,
		year:    t.Year(),
		month:   int(t.Month()),
		day:     t.Day(),
		hour:    t.Hour(),
		minute:  t.Minute(),
		second:  t.Second(),
		weekday: int(t.Weekday()),
		yearDay: t.YearDay() - 1,
		offset:  offset / 60,
	}
}

// Resolves the current time in the local timezone.
func Now() Instant {
	return local.Now()
}

// Resolves an epoch timestamp (seconds or milliseconds) in the local
// timezone. See Resolver.Epoch.
func Epoch(v float64) Instant {
	return local.Epoch(v)
}

// Resolves t in the local timezone.
func FromTime(t time.Time) Instant {
	return local.Time(t)
}
