package httpserver

import (
	"context"
	"crypto/cipher"
	"log/slog"
	"time"

	"github.com/liquidgecka/stampfmt/httpserver/access"
	"github.com/liquidgecka/stampfmt/httpserver/secretloader"
	"github.com/liquidgecka/stampfmt/human"
	"github.com/liquidgecka/stampfmt/icon"
)

type Settings struct {
	// The address and port that should be listened on for this server. A
	// zero port picks a free one.
	Addr string
	Port int

	// If TLS is desired then this loader should be non nil and it should
	// return certificates to be used for serving on the TLS ports.
	TLSCerts *secretloader.Certificate

	// Debugging ACL
	EnableDebugPaths bool
	DebugPathsACL    *access.ACL

	// Health checking ACL
	HealthCheckACL *access.ACL

	// Protects the formatting endpoints and /_prefs.
	ACL *access.ACL

	// The Logger that will be used for all logs.
	Logger *slog.Logger

	// HTTP requests will be logged to this logger for access/request
	// logging. This is optional, if its left nil then no access logging
	// will be processed.
	AccessLogger *slog.Logger

	// These settings will be mapped into the underlying http.Server
	// object.
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// If true then the contents of the errors will be written back to
	// the caller. This is not safe in production environments as it
	// may leak information back to the caller.
	ReplyWithError bool

	// Defaults for the formatting endpoints.
	Format FormatSettings

	// Preference cookie configuration. If nil then /_prefs is disabled
	// and /format never reads cookies.
	Cookie *CookieSettings
}

// Defaults used when a request does not say otherwise.
type FormatSettings struct {
	// The pattern used by /format when neither the request nor the
	// preference cookie names one.
	Pattern string

	// The timezone used by /format. nil means the server's local zone.
	Location *time.Location

	// Labels for /size and /number.
	Labels human.Labels

	// Rewrites URLs for /icon.
	Icons icon.Rewriter
}

// Where and how the sealed preference cookie is stored.
type CookieSettings struct {
	Name   string
	Path   string
	Domain string

	// How long the browser should keep the cookie. Zero makes it a
	// session cookie.
	MaxAge time.Duration

	// The AES keys used to encrypt the cookie, the first one seals.
	Keys func(context.Context) ([]cipher.Block, error)

	// The 32 byte key used to authenticate the cookie.
	HashKey func(context.Context) ([]byte, error)
}
