package httpserver

import (
	"crypto/cipher"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	perrors "github.com/pkg/errors"

	"github.com/liquidgecka/stampfmt/cookie"
	"github.com/liquidgecka/stampfmt/httpserver/request"
	"github.com/liquidgecka/stampfmt/internal/sloghelper"
)

// The per client formatting preferences kept in the sealed cookie.
type preferences struct {
	Pattern  string      `json:"p,omitempty"`
	Timezone string      `json:"z,omitempty"`
	Updated  cookie.Time `json:"u"`
}

// Returns the preferred timezone or nil if none was set or it is no
// longer known.
func (p *preferences) location() *time.Location {
	if p.Timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil
	}
	return loc
}

// Returns a Jar and a Sealer bound to this request.
func (s *server) cookieJar(ir *request.Request) (*cookie.Jar, *cookie.Sealer, error) {
	cs := s.settings.Cookie
	hashKey, err := cs.HashKey(ir.Context)
	if err != nil {
		return nil, nil, perrors.Wrap(err, "loading cookie hash key")
	}
	jar := &cookie.Jar{
		Store:  cookie.NewHTTPStore(ir, ir.Request),
		Path:   cs.Path,
		Domain: cs.Domain,
	}
	sealer := &cookie.Sealer{
		Keys: func() ([]cipher.Block, error) {
			keys, err := cs.Keys(ir.Context)
			return keys, perrors.Wrap(err, "loading cookie keys")
		},
		HashKey: hashKey,
	}
	return jar, sealer, nil
}

// Reads the preference cookie. Missing, tampered or stale cookies are
// treated as no preferences at all.
func (s *server) loadPrefs(ir *request.Request) (preferences, bool) {
	var prefs preferences
	if s.settings.Cookie == nil {
		return prefs, false
	}
	jar, sealer, err := s.cookieJar(ir)
	if err == nil {
		err = jar.GetSealed(sealer, s.settings.Cookie.Name, &prefs)
	}
	switch {
	case err == nil:
		return prefs, true
	case errors.Is(err, cookie.ErrNotFound):
	case errors.Is(err, cookie.ErrInvalid):
		ir.Debug("Ignoring invalid preference cookie.")
	default:
		ir.Logger().LogAttrs(
			ir.Context,
			slog.LevelError,
			"Unable to read the preference cookie.",
			sloghelper.Error("error", err))
	}
	return preferences{}, false
}

// Aborts with a 404 when preferences are disabled.
func (s *server) requirePrefs(ir *request.Request) {
	if s.settings.Cookie == nil {
		panic(&request.HTTPError{
			Status:   http.StatusNotFound,
			Response: "Preferences are not enabled on this server.",
		})
	}
}

// Renders the preferences as key=value lines.
func (p *preferences) String() string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "pattern=%s\n", p.Pattern)
	fmt.Fprintf(&b, "tz=%s\n", p.Timezone)
	if text, err := p.Updated.MarshalText(); err == nil {
		fmt.Fprintf(&b, "updated=%s\n", text)
	}
	return b.String()
}

// GET /_prefs
func (s *server) httpGetPrefs(ir *request.Request) {
	s.requirePrefs(ir)
	prefs, ok := s.loadPrefs(ir)
	if !ok {
		panic(&request.HTTPError{
			Status:   http.StatusNotFound,
			Response: "No preferences are stored.",
		})
	}
	ir.Reply(http.StatusOK, prefs.String())
}

// POST /_prefs?pattern=&tz=
func (s *server) httpSetPrefs(ir *request.Request) {
	s.requirePrefs(ir)
	prefs := preferences{
		Pattern: ir.Query("pattern"),
		Updated: cookie.Time{Time: time.Now()},
	}
	if len(prefs.Pattern) > MaxPatternLength {
		panic(request.BadRequest(
			"The pattern must be at most %d bytes.",
			MaxPatternLength))
	}
	if loc := ir.LocationQuery("tz", nil); loc != nil {
		prefs.Timezone = loc.String()
	}

	jar, sealer, err := s.cookieJar(ir)
	if err == nil {
		opts := &cookie.Options{
			Seconds: int64(s.settings.Cookie.MaxAge / time.Second),
		}
		err = jar.SetSealed(sealer, s.settings.Cookie.Name, &prefs, opts)
	}
	if err != nil {
		panic(&request.HTTPError{
			Status:   http.StatusInternalServerError,
			Response: "Unable to store preferences.",
			Err:      err,
		})
	}
	ir.Reply(http.StatusOK, prefs.String())
}

// DELETE /_prefs
func (s *server) httpDeletePrefs(ir *request.Request) {
	s.requirePrefs(ir)
	cs := s.settings.Cookie
	jar := &cookie.Jar{
		Store:  cookie.NewHTTPStore(ir, ir.Request),
		Path:   cs.Path,
		Domain: cs.Domain,
	}
	if err := jar.Delete(cs.Name, nil); err != nil && !errors.Is(err, cookie.ErrNotFound) {
		panic(&request.HTTPError{
			Status:   http.StatusInternalServerError,
			Response: "Unable to remove preferences.",
			Err:      err,
		})
	}
	ir.Reply(http.StatusOK, "ok\n")
}
