package config

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/liquidgecka/stampfmt/httpserver"
	"github.com/liquidgecka/stampfmt/human"
	"github.com/liquidgecka/stampfmt/icon"
	ierrors "github.com/liquidgecka/stampfmt/internal/errors"
	"github.com/liquidgecka/stampfmt/internal/sloghelper"
	"github.com/liquidgecka/stampfmt/stamp"
)

type Config struct {
	top *top

	// Ensures that logging is initialized exactly once no matter which
	// accessor asks for it first.
	initializeOnce sync.Once
	initializeErr  error
}

// Parses a file and validates its contents, returning the objects that can
// be used for configuration later.
func Parse(filename string) (*Config, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening configuration")
	}
	defer fd.Close()

	top := &top{}
	decoder := toml.NewDecoder(fd).Strict(true)
	if err := decoder.Decode(top); err != nil {
		return nil, errors.Wrap(err, "parsing "+filename)
	}
	return newConfig(top)
}

// Returns a configuration with every value at its default, used when no
// configuration file is given.
func Default() *Config {
	c, err := newConfig(&top{})
	if err != nil {
		panic(err)
	}
	return c
}

func newConfig(t *top) (*Config, error) {
	if problems := t.validate(); problems != nil {
		errs := make([]error, len(problems))
		for i, p := range problems {
			errs[i] = ierrors.New(p)
		}
		return nil, ierrors.NewMultipleError("invalid configuration", errs)
	}
	return &Config{top: t}, nil
}

// Initializes the logging system.
func (c *Config) InitializeLogging() error {
	c.initializeOnce.Do(func() {
		c.initializeErr = c.initializeLogging()
	})
	return c.initializeErr
}

// Like InitializeLogging but panics on failure. Used by the accessors that
// need loggers to exist.
func (c *Config) mustInitializeLogging() {
	if err := c.InitializeLogging(); err != nil {
		panic(err)
	}
}

// Returns the top level logger that was generated during initialization.
func (c *Config) GetLogger() *slog.Logger {
	c.mustInitializeLogging()
	return c.top.Log.logger
}

// Returns the pid file (if configured). If not configured this returns
// and empty string.
func (c *Config) GetPIDFile() string {
	if c.top.PIDFile == nil {
		return ""
	}
	return *c.top.PIDFile
}

// Returns all log rotators created as part of the configuration.
func (c *Config) GetRotators() []*sloghelper.Rotator {
	c.mustInitializeLogging()
	r := make([]*sloghelper.Rotator, 0, 2)
	if c.top.Log.rotator != nil {
		r = append(r, c.top.Log.rotator)
	}
	if c.top.Server.AccessLog != nil && c.top.Server.AccessLog.rotator != nil {
		r = append(r, c.top.Server.AccessLog.rotator)
	}
	return r
}

// Returns the httpserver.Server for this config.
func (c *Config) GetServer() httpserver.Server {
	c.mustInitializeLogging()
	return c.top.Server.Server()
}

// Returns the compiled default pattern.
func (c *Config) Formatter() *stamp.Formatter {
	return c.top.Format.formatter
}

// Returns a Resolver for the configured timezone.
func (c *Config) Resolver() *stamp.Resolver {
	return &stamp.Resolver{Location: c.top.Format.location}
}

// Returns the configured size and number labels.
func (c *Config) Labels() human.Labels {
	return c.top.Human.labels()
}

// Returns the configured icon URL rewriter.
func (c *Config) Icons() icon.Rewriter {
	return c.top.Icon.rewriter()
}

// Pre-loads all of the secrets in the configuration. If any secrets were
// configured (certificates, aes keys, htpasswd files, etc) then this will
// perform the initial load of those resources.
func (c *Config) PreLoadSecrets(ctx context.Context) error {
	s := &c.top.Server
	for _, a := range []*acl{s.ACL, s.DebugPathsACL, s.HealthCheckACL} {
		if err := a.preLoad(ctx); err != nil {
			return err
		}
	}
	if err := s.tlsCerts.PreLoad(ctx); err != nil {
		return err
	}
	return c.top.Cookie.preLoad(ctx)
}

// Starts goroutines that refresh every secret that is allowed to be served
// stale. They run until the context is canceled.
func (c *Config) StartSecretRefreshers(ctx context.Context) {
	c.mustInitializeLogging()
	s := &c.top.Server
	for _, a := range []*acl{s.ACL, s.DebugPathsACL, s.HealthCheckACL} {
		a.startRefresher(ctx)
	}
	s.tlsCerts.StartRefresher(ctx)
	c.top.Cookie.startRefresher(ctx)
}

// Flushes the log files every interval until the context is canceled.
func (c *Config) StartLogFlushers(ctx context.Context, interval time.Duration) {
	for _, r := range c.GetRotators() {
		r.StartFlusher(ctx, interval)
	}
}

// initializes logging exactly one time.
func (c *Config) initializeLogging() error {
	ctx := context.Background()
	if err := c.top.Log.initLogging(ctx); err != nil {
		return err
	}
	if err := c.top.Server.initLogging(ctx); err != nil {
		return err
	}
	c.top.Cookie.initLogging()
	return nil
}
