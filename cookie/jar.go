// Package cookie reads and writes cookies through a document style cookie
// store, and can seal values so that clients can neither read nor alter
// them.
package cookie

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/liquidgecka/stampfmt/stamp"
	ierrors "github.com/liquidgecka/stampfmt/internal/errors"
)

var (
	// Returned when the requested cookie is not set.
	ErrNotFound = ierrors.New("cookie not found")

	// Returned when a cookie value can not be decoded or unsealed.
	ErrInvalid = ierrors.New("cookie was not valid")
)

// The expires attribute is always written in GMT.
var (
	gmtResolver  = &stamp.Resolver{Location: time.UTC}
	gmtFormatter = stamp.Compile(`D, d M Y H:i:s \G\M\T`)
)

// Per call settings for Jar.Set and Jar.Delete.
type Options struct {
	// The cookie expires this many seconds from now. Zero makes it a
	// session cookie. Ignored by Delete.
	Seconds int64

	// Override the Jar's Path and Domain when not empty.
	Path   string
	Domain string
}

// Reads and writes individual cookies in a Store.
type Jar struct {
	Store Store

	// Attached to every cookie the Jar sets unless the call overrides
	// them. Empty values leave the attribute out.
	Path   string
	Domain string
}

// Sets key to value. The value is URI component encoded.
func (j *Jar) Set(key, value string, opts *Options) {
	var expires time.Time
	if opts != nil && opts.Seconds != 0 {
		expires = time.Now().Add(time.Duration(opts.Seconds) * time.Second)
	}
	path, domain := j.scope(opts)
	j.assign(key, EncodeURIComponent(value), expires, path, domain)
}

// The path and domain a cookie is assigned with.
func (j *Jar) scope(opts *Options) (path, domain string) {
	path, domain = j.Path, j.Domain
	if opts != nil {
		if opts.Path != "" {
			path = opts.Path
		}
		if opts.Domain != "" {
			domain = opts.Domain
		}
	}
	return path, domain
}

// Returns the decoded value of the cookie named key.
func (j *Jar) Get(key string) (string, error) {
	raw, ok := j.raw(key)
	if !ok {
		return "", ErrNotFound
	}
	return DecodeURIComponent(raw)
}

// Removes the cookie named key by assigning it an expiry in the past.
// Cookies set with a Path or Domain override need the same override here.
// Returns ErrNotFound if it was not set.
func (j *Jar) Delete(key string, opts *Options) error {
	raw, ok := j.raw(key)
	if !ok {
		return ErrNotFound
	}
	path, domain := j.scope(opts)
	j.assign(key, raw, time.Now().Add(-time.Millisecond), path, domain)
	return nil
}

// Finds the raw, still encoded, value of a cookie.
func (j *Jar) raw(key string) (string, bool) {
	re, err := regexp.Compile(`(^| )` + regexp.QuoteMeta(key) + `=([^;]*)(;|$)`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(j.Store.Cookies())
	if m == nil {
		return "", false
	}
	return m[2], true
}

func (j *Jar) assign(key, value string, expires time.Time, path, domain string) {
	b := strings.Builder{}
	b.Grow(len(key) + len(value) + len(path) + len(domain) + 64)
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
	if !expires.IsZero() {
		b.WriteString(";expires=")
		b.WriteString(gmtFormatter.FormatTime(gmtResolver, expires))
	}
	if path != "" {
		b.WriteString(";path=")
		b.WriteString(path)
	}
	if domain != "" {
		b.WriteString(";domain=")
		b.WriteString(domain)
	}
	j.Store.SetCookie(b.String())
}

// Escapes everything except letters, digits and - _ . ! ~ * ' ( ) the way
// browsers encode URI components.
func EncodeURIComponent(s string) string {
	return componentFixups.Replace(url.QueryEscape(s))
}

var componentFixups = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// Reverses EncodeURIComponent. Malformed escapes and escapes that do not
// decode to UTF-8 are errors.
func DecodeURIComponent(s string) (string, error) {
	v, err := url.PathUnescape(s)
	if err != nil {
		return "", errors.Wrap(err, "decoding cookie value")
	}
	if !utf8.ValidString(v) {
		return "", errors.Wrap(ErrInvalid, "decoding cookie value")
	}
	return v, nil
}
