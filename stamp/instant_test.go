package stamp

import (
	"math"
	"testing"
	"time"

	"bou.ke/monkey"
	"github.com/liquidgecka/testlib"
)

var (
	utc      = &Resolver{Location: time.UTC}
	shanghai = &Resolver{Location: time.FixedZone("CST", 8*60*60)}
	kolkata  = &Resolver{Location: time.FixedZone("IST", 5*60*60+30*60)}
	newYork  = &Resolver{Location: time.FixedZone("EST", -5*60*60)}
)

// Locks time.Now to 2020-02-20 02:02:02.345 UTC for the remainder of the
// test.
func fixNow() func() {
	now := time.Date(2020, 2, 20, 2, 2, 2, 345000000, time.UTC)
	patch := monkey.Patch(time.Now, func() time.Time { return now })
	return patch.Unpatch
}

func TestResolver_EpochSecondsAndMillis(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	seconds := utc.Epoch(1473120000)
	millis := utc.Epoch(1473120000000)
	T.Equal(seconds.Valid(), true)
	T.Equal(seconds, millis)
	T.Equal(seconds.UnixMilli(), int64(1473120000000))
	T.Equal(seconds.Year(), 2016)
	T.Equal(seconds.Month(), 9)
	T.Equal(seconds.Day(), 6)
	T.Equal(seconds.Hour(), 0)
	T.Equal(seconds.Weekday(), 2)
	T.Equal(seconds.YearDay(), 249)
	T.Equal(seconds.Offset(), 0)
}

func TestResolver_EpochBoundary(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	// The largest value still treated as seconds.
	in := utc.Epoch(9999999999)
	T.Equal(in.UnixMilli(), int64(9999999999000))

	// Anything above that is milliseconds.
	in = utc.Epoch(10000000000)
	T.Equal(in.UnixMilli(), int64(10000000000))
	T.Equal(in.Year(), 1970)
}

func TestResolver_EpochTruncates(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	T.Equal(utc.Epoch(1473120000123.9).UnixMilli(), int64(1473120000123))
	T.Equal(utc.Epoch(1473120000.5).UnixMilli(), int64(1473120000500))
	T.Equal(utc.Epoch(-1.5).UnixMilli(), int64(-1500))
}

func TestResolver_EpochInvalid(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	T.Equal(utc.Epoch(math.NaN()).Valid(), false)
	T.Equal(utc.Epoch(math.Inf(1)).Valid(), false)
	T.Equal(utc.Epoch(math.Inf(-1)).Valid(), false)
	T.Equal(utc.Epoch(9e15).Valid(), false)
	T.Equal(utc.Epoch(-9e12).Valid(), false)
	T.Equal(utc.Epoch(8.64e15).Valid(), true)
	T.Equal(Instant{}.Valid(), false)
	T.Equal(Instant{}.Time().IsZero(), true)
}

func TestResolver_EpochZeroIsNow(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()
	defer fixNow()()

	in := utc.Epoch(0)
	T.Equal(in.Valid(), true)
	T.Equal(in.UnixMilli(), int64(1582164122345))
	T.Equal(in, utc.Now())
}

func TestResolver_Time(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	src := time.Date(2016, 12, 31, 4, 13, 0, 0, time.UTC)
	in := shanghai.Time(src)
	T.Equal(in.Year(), 2016)
	T.Equal(in.Month(), 12)
	T.Equal(in.Day(), 31)
	T.Equal(in.Hour(), 12)
	T.Equal(in.Minute(), 13)
	T.Equal(in.Offset(), 480)
	T.Equal(in.Time().Equal(src), true)

	defer fixNow()()
	T.Equal(utc.Time(time.Time{}), utc.Now())
}

func TestResolver_Date(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	in := newYork.Date(2021, 12, 31)
	T.Equal(in.Year(), 2021)
	T.Equal(in.Month(), 12)
	T.Equal(in.Day(), 31)
	T.Equal(in.Hour(), 0)
	T.Equal(in.YearDay(), 364)
	T.Equal(in.Weekday(), 5)
	T.Equal(in.Offset(), -300)
}

func TestResolver_Offsets(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	T.Equal(kolkata.Epoch(1473120000).Offset(), 330)
	T.Equal(kolkata.Epoch(1473120000).Hour(), 5)
	T.Equal(kolkata.Epoch(1473120000).Minute(), 30)
	T.Equal(newYork.Epoch(1473120000).Day(), 5)
}

func TestResolver_NilLocation(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	var r *Resolver
	T.Equal(r.location(), time.Local)
	T.Equal((&Resolver{}).location(), time.Local)
	T.Equal(FromTime(time.Unix(1473120000, 0)).UnixMilli(), int64(1473120000000))
	T.Equal(Epoch(1473120000).UnixMilli(), int64(1473120000000))
}
