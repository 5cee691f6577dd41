package config

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/liquidgecka/stampfmt/httpserver"
	"github.com/liquidgecka/stampfmt/httpserver/secretloader"
	"github.com/liquidgecka/stampfmt/internal/sloghelper"
)

var (
	defaultDebugPathsEnable  = false
	defaultIdleTimeout       = time.Minute * 5
	defaultMaxHeaderBytes    = int(1 << 20)
	defaultPort              = 1092
	defaultReadHeaderTimeout = time.Minute
	defaultReadTimeout       = time.Minute
	defaultReplyWithError    = false
	defaultTLS               = false
	defaultWriteTimeout      = time.Minute
)

type server struct {
	// The IP address to bind too.
	Addr value `toml:"addr"`

	// The port to listen on.
	Port value `toml:"port"`
	port int

	// TLS related configuration.
	TLS        *bool   `toml:"tls"`
	TLSCertURL *string `toml:"tls_certificate_url"`
	TLSKeyURL  *string `toml:"tls_private_key_url"`

	// Timeouts for Reads and Writes.
	ReadTimeout       *time.Duration `toml:"read_timeout"`
	ReadHeaderTimeout *time.Duration `toml:"read_header_timeout"`
	WriteTimeout      *time.Duration `toml:"write_timeout"`
	IdleTimeout       *time.Duration `toml:"idle_timeout"`

	// Maximum header sizes.
	MaxHeaderBytes value `toml:"max_header_bytes"`
	maxHeaderBytes int

	// Write error details back to callers.
	ReplyWithError *bool `toml:"reply_with_error"`

	// Enable debug HTTP URLs and the ACL that controls access to those
	// functions.
	DebugPathsEnable *bool `toml:"debug_paths_enable"`
	DebugPathsACL    *acl  `toml:"debug_paths_acl"`

	// Likewise we allow setting up an ACL on who can access the health
	// check endpoint.
	HealthCheckACL *acl `toml:"health_check_acl"`

	// Protects the formatting endpoints and /_prefs. Open if not set.
	ACL *acl `toml:"acl"`

	// The access log configuration.
	AccessLog *log `toml:"access_log"`

	// The top object attached to this.
	top *top

	// A cache of the created httpserver.Server object.
	server httpserver.Server

	// A certificate loader that will be used for initializing TLS
	// configuration.
	tlsCerts *secretloader.Certificate
}

func (s *server) initLogging(ctx context.Context) error {
	if s.AccessLog != nil {
		if err := s.AccessLog.initLogging(ctx); err != nil {
			return err
		}
	}
	s.DebugPathsACL.initLogging()
	s.HealthCheckACL.initLogging()
	s.ACL.initLogging()
	if s.tlsCerts != nil {
		s.tlsCerts.Logger = s.top.Log.logger.With(
			sloghelper.String("component", "tls-loader"),
			sloghelper.String("certificate-url", *s.TLSCertURL),
			sloghelper.String("private-key-url", *s.TLSKeyURL))
	}
	return nil
}

// Returns the HTTP server that was created. This must be done after
// logging is initialized!
func (s *server) Server() httpserver.Server {
	if s.server == nil {
		settings := &httpserver.Settings{
			Addr:              s.Addr.String(),
			Port:              s.port,
			TLSCerts:          s.tlsCerts,
			EnableDebugPaths:  *s.DebugPathsEnable,
			DebugPathsACL:     s.DebugPathsACL.access(),
			HealthCheckACL:    s.HealthCheckACL.access(),
			ACL:               s.ACL.access(),
			Logger:            s.top.Log.logger.With(sloghelper.String("component", "http-server")),
			WriteTimeout:      *s.WriteTimeout,
			ReadTimeout:       *s.ReadTimeout,
			ReadHeaderTimeout: *s.ReadHeaderTimeout,
			IdleTimeout:       *s.IdleTimeout,
			MaxHeaderBytes:    s.maxHeaderBytes,
			ReplyWithError:    *s.ReplyWithError,
			Format: httpserver.FormatSettings{
				Pattern:  s.top.Format.formatter.Pattern(),
				Location: s.top.Format.location,
				Labels:   s.top.Human.labels(),
				Icons:    s.top.Icon.rewriter(),
			},
			Cookie: s.top.Cookie.settings(),
		}
		if s.AccessLog != nil {
			settings.AccessLogger = s.AccessLog.logger
		}
		s.server = httpserver.New(settings)
	}
	return s.server
}

func (s *server) validate(t *top) []string {
	var errors []string
	var err error

	// Set the top object.
	s.top = t

	// Addr
	if !s.Addr.set {
		s.Addr.raw = []byte{}
	} else if net.ParseIP(s.Addr.String()) == nil {
		errors = append(errors, "server.addr is not a valid ip.")
	}

	// Port
	if !s.Port.set {
		s.port = defaultPort
	} else if s.port, err = s.Port.Int(); err != nil {
		errors = append(errors, "server.port must be an integer.")
	} else if s.port < 1 || s.port > 65535 {
		errors = append(errors, "server.port is not a valid port.")
	}

	// TLS
	if s.TLS == nil {
		s.TLS = &defaultTLS
	}
	errors = append(errors, s.validateTLS()...)

	// Timeouts
	timeouts := []struct {
		name  string
		value **time.Duration
		def   *time.Duration
	}{
		{"read_timeout", &s.ReadTimeout, &defaultReadTimeout},
		{"read_header_timeout", &s.ReadHeaderTimeout, &defaultReadHeaderTimeout},
		{"write_timeout", &s.WriteTimeout, &defaultWriteTimeout},
		{"idle_timeout", &s.IdleTimeout, &defaultIdleTimeout},
	}
	for _, timeout := range timeouts {
		if *timeout.value == nil {
			*timeout.value = timeout.def
		} else if **timeout.value < time.Second {
			errors = append(errors, fmt.Sprintf(
				"server.%s must be at least 1s.",
				timeout.name))
		}
	}

	// MaxHeaderBytes
	if !s.MaxHeaderBytes.set {
		s.maxHeaderBytes = defaultMaxHeaderBytes
	} else if m, err := s.MaxHeaderBytes.Bytes(); err != nil {
		errors = append(
			errors,
			fmt.Sprintf("server.max_header_bytes %s.", err.Error()))
	} else if m < 4096 {
		errors = append(
			errors,
			"server.max_header_bytes can not be less than 4KB.")
	} else if m > 1<<30 {
		errors = append(
			errors,
			"server.max_header_bytes can not be greater than 1GB.")
	} else {
		s.maxHeaderBytes = int(m)
	}

	// ReplyWithError
	if s.ReplyWithError == nil {
		s.ReplyWithError = &defaultReplyWithError
	}

	// DebugPathsEnable
	if s.DebugPathsEnable == nil {
		s.DebugPathsEnable = &defaultDebugPathsEnable
	}

	// DebugPathsACL, HealthCheckACL. Both default to local host only.
	if s.DebugPathsACL == nil {
		s.DebugPathsACL = localHostOnly()
	}
	errors = append(
		errors,
		s.DebugPathsACL.validate(t, "server.debug_paths_acl")...)
	if s.HealthCheckACL == nil {
		s.HealthCheckACL = localHostOnly()
	}
	errors = append(
		errors,
		s.HealthCheckACL.validate(t, "server.health_check_acl")...)

	// ACL
	if s.ACL != nil {
		errors = append(errors, s.ACL.validate(t, "server.acl")...)
	}

	// AccessLog
	if s.AccessLog != nil {
		errors = append(
			errors,
			s.AccessLog.validate(t, "server.access_log")...,
		)
	}

	// Return any errors encountered.
	return errors
}

func (s *server) validateTLS() []string {
	var errors []string
	if !*s.TLS {
		if s.TLSCertURL != nil {
			errors = append(errors, ""+
				"server.tls_certificate_url can not be used when server.tls "+
				"is false")
		}
		if s.TLSKeyURL != nil {
			errors = append(errors, ""+
				"server.tls_private_key_url can not be used when server.tls "+
				"is false")
		}
		return errors
	}

	s.tlsCerts = &secretloader.Certificate{}
	if s.TLSCertURL == nil {
		errors = append(
			errors,
			"server.tls_certificate_url is required when server.tls is true.")
	} else if l, err := secretloader.NewLoader(*s.TLSCertURL, s.top.getProfiles()); err != nil {
		errors = append(errors, fmt.Sprintf(
			"server.tls_certificate_url is not valid: %s", err.Error()))
	} else {
		s.tlsCerts.Certificate = l
	}
	if s.TLSKeyURL == nil {
		errors = append(
			errors,
			"server.tls_private_key_url is required when server.tls is true.")
	} else if l, err := secretloader.NewLoader(*s.TLSKeyURL, s.top.getProfiles()); err != nil {
		errors = append(errors, fmt.Sprintf(
			"server.tls_private_key_url is not valid: %s", err.Error()))
	} else {
		s.tlsCerts.Private = l
	}
	return errors
}
