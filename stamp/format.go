package stamp

import (
	"strings"
	"time"
)

// A compiled format pattern. Compiling once and reusing the Formatter
// avoids walking the pattern on every call. Formatters are never modified
// after Compile returns so they can be shared between goroutines.
type Formatter struct {
	// The pattern this Formatter was compiled from.
	pattern string

	// Set if the pattern contains at least one directive. If not then the
	// output is the same for every instant and nothing needs resolving.
	requiresTime bool

	// The maximal size of the string that will be generated. This is just
	// a guess so we can preallocate space in the strings.Builder.
	maxSize int

	// Each function appends its piece of the output to the builder.
	funcs []func(*Instant, *strings.Builder)
}

// Compiles a pattern into a Formatter. Every pattern is valid: letters
// that are not directives and any other characters are copied through.
func Compile(pattern string) *Formatter {
	f := &Formatter{pattern: pattern}
	p := parser{f: f}

	// Walk the characters processing them via the state machine.
	for _, r := range pattern {
		if p.next == nil {
			p.plain(r)
		} else {
			p.next(r)
		}
	}

	// A pattern ending in a backslash keeps it.
	if p.next != nil {
		p.static.WriteRune('\\')
		p.next = nil
	}
	p.addStatic()

	f.maxSize = p.maxSize
	return f
}

// Returns the pattern the Formatter was compiled from.
func (f *Formatter) Pattern() string {
	if f == nil {
		return ""
	}
	return f.pattern
}

// Reports whether the output depends on the instant at all.
func (f *Formatter) RequiresTime() bool {
	return f != nil && f.requiresTime
}

// Renders the instant using the compiled pattern. An invalid instant
// renders every directive as an empty string.
func (f *Formatter) Format(in Instant) string {
	if f == nil || len(f.funcs) == 0 {
		return ""
	}
	b := strings.Builder{}
	b.Grow(f.maxSize)
	for _, fun := range f.funcs {
		fun(&in, &b)
	}
	return b.String()
}

// Resolves an epoch timestamp (seconds or milliseconds) with the given
// Resolver and renders it. Literal only patterns never resolve anything.
func (f *Formatter) FormatEpoch(r *Resolver, timestamp float64) string {
	if !f.RequiresTime() {
		return f.Format(Instant{})
	}
	return f.Format(r.Epoch(timestamp))
}

// Renders the current time as seen by the given Resolver.
func (f *Formatter) FormatNow(r *Resolver) string {
	if !f.RequiresTime() {
		return f.Format(Instant{})
	}
	return f.Format(r.Now())
}

// Renders t as seen by the given Resolver.
func (f *Formatter) FormatTime(r *Resolver, t time.Time) string {
	if !f.RequiresTime() {
		return f.Format(Instant{})
	}
	return f.Format(r.Time(t))
}

// Formats a timestamp in the local timezone. The timestamp may be given in
// seconds or milliseconds since the epoch; a zero timestamp formats the
// current time.
func Format(pattern string, timestamp float64) string {
	return Compile(pattern).FormatEpoch(local, timestamp)
}

// Formats the current time in the local timezone.
func FormatNow(pattern string) string {
	return Compile(pattern).FormatNow(local)
}

// Formats t in the local timezone.
func FormatTime(pattern string, t time.Time) string {
	return Compile(pattern).FormatTime(local, t)
}

// Reports whether r is a directive letter.
func Known(r rune) bool {
	_, ok := fields[r]
	return ok
}

// Converts a pattern into a Formatter. This is a two state machine: plain
// text, and the character immediately following a backslash.
type parser struct {
	f       *Formatter
	static  strings.Builder
	next    func(rune)
	maxSize int
}

// Adds all of the buffered static data to the function list as a static
// string generator.
func (p *parser) addStatic() {
	if p.static.Len() == 0 {
		return
	}
	p.maxSize += p.static.Len()
	p.f.funcs = append(
		p.f.funcs,
		staticString(p.static.String()).Format)
	p.static.Reset()
}

// Handles a character outside of an escape sequence.
func (p *parser) plain(r rune) {
	if r == '\\' {
		p.next = p.escaped
		return
	}
	d, ok := fields[r]
	if !ok {
		p.static.WriteRune(r)
		return
	}
	p.addStatic()
	p.maxSize += d.size
	p.f.requiresTime = true
	p.f.funcs = append(p.f.funcs, d.Format)
}

// The state for the character immediately after a backslash. ASCII
// letters are written literally. Anything else means the backslash was a
// literal itself and the character is processed as normal.
func (p *parser) escaped(r rune) {
	p.next = nil
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
		p.static.WriteRune(r)
		return
	}
	p.static.WriteRune('\\')
	p.plain(r)
}

// Appends the directive's value unless the instant is invalid.
func (d directive) Format(in *Instant, out *strings.Builder) {
	if in.valid {
		d.format(in, out)
	}
}

// Used for writing a static string into a format.
type staticString string

// Appends the static string to the output.
func (s staticString) Format(_ *Instant, out *strings.Builder) {
	out.WriteString(string(s))
}
