package httpserver

import (
	"math"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/liquidgecka/stampfmt/httpserver/request"
	"github.com/liquidgecka/stampfmt/human"
	"github.com/liquidgecka/stampfmt/internal/sloghelper"
	"github.com/liquidgecka/stampfmt/stamp"
)

// Patterns longer than this are rejected to keep the output bounded.
const MaxPatternLength = 1024

// Returns the location configured for the server.
func (s *server) location() *time.Location {
	if s.settings.Format.Location == nil {
		return time.Local
	}
	return s.settings.Format.Location
}

// GET /format?pattern=&ts=&tz=
func (s *server) httpFormat(ir *request.Request) {
	prefs, _ := s.loadPrefs(ir)

	formatter := s.defaultPattern
	pattern := ir.Query("pattern")
	if pattern == "" {
		pattern = prefs.Pattern
	}
	if pattern != "" {
		if len(pattern) > MaxPatternLength || !utf8.ValidString(pattern) {
			panic(request.BadRequest(
				"The pattern must be valid UTF-8 and at most %d bytes.",
				MaxPatternLength))
		}
		formatter = stamp.Compile(pattern)
	}

	loc := s.location()
	if l := prefs.location(); l != nil {
		loc = l
	}
	loc = ir.LocationQuery("tz", loc)

	ts := ir.Float64Query("ts", 0)
	if ir.DebugEnabled() {
		ir.Debug(
			"Formatting timestamp.",
			sloghelper.String("pattern", formatter.Pattern()),
			sloghelper.String("tz", loc.String()),
			sloghelper.Float64("ts", ts))
	}
	out := formatter.FormatEpoch(&stamp.Resolver{Location: loc}, ts)
	ir.Reply(http.StatusOK, out+"\n")
}

// Converts a parsed number into an int64, degrading NaN and values that
// do not fit to 0 the same way the library treats bad input.
func toInt64(v float64) int64 {
	if math.IsNaN(v) || v >= math.MaxInt64 || v <= math.MinInt64 {
		return 0
	}
	return int64(v)
}

// GET /size?n=
func (s *server) httpSize(ir *request.Request) {
	n := toInt64(ir.Float64Query("n", 0))
	ir.Reply(http.StatusOK, s.settings.Format.Labels.Size(n)+"\n")
}

// GET /number?n=
func (s *server) httpNumber(ir *request.Request) {
	n := toInt64(ir.Float64Query("n", 0))
	ir.Reply(http.StatusOK, s.settings.Format.Labels.Number(n)+"\n")
}

// GET /money?v=&cents=
func (s *server) httpMoney(ir *request.Request) {
	v := ir.Float64Query("v", 0)
	cents := ir.BoolQuery("cents", false)
	ir.Reply(http.StatusOK, human.Money(v, cents)+"\n")
}

// GET /icon?url=&size=
func (s *server) httpIcon(ir *request.Request) {
	url := ir.RequiredQuery("url")
	size := ir.IntQuery("size", 0)
	ir.Reply(http.StatusOK, s.settings.Format.Icons.Rewrite(url, size)+"\n")
}
