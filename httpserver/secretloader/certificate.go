package secretloader

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
)

// A TLS certificate loaded from two secrets, the public certificate chain
// and the private key, both PEM encoded.
type Certificate struct {
	// The Loader that will fetch the bytes needed for the public portion of
	// the certificate.
	Certificate Loader

	// The loader that will fetch the bytes needed for the private portion
	// of the certificate.
	Private Loader

	// Logs problems refreshing the certificate.
	Logger *slog.Logger

	lock sync.Mutex
	cert *tls.Certificate
}

// Returns the current certificate, loading it if either half is stale.
func (c *Certificate) Cert(ctx context.Context) (*tls.Certificate, error) {
	if c.Certificate.IsStale(ctx) || c.Private.IsStale(ctx) {
		if err := c.load(ctx); err != nil {
			return nil, err
		}
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.cert, nil
}

// Matches tls.Config.GetCertificate.
func (c *Certificate) GetCertificate(
	hello *tls.ClientHelloInfo,
) (*tls.Certificate, error) {
	ctx := context.Background()
	if hello != nil && hello.Context() != nil {
		ctx = hello.Context()
	}
	return c.Cert(ctx)
}

// Loads the certificate at startup if either half asks for it.
func (c *Certificate) PreLoad(ctx context.Context) error {
	if c == nil {
		return nil
	} else if !c.Certificate.PreLoad(ctx) && !c.Private.PreLoad(ctx) {
		return nil
	}
	return c.load(ctx)
}

// Starts a goroutine that will periodically refresh the certificate if
// both halves are allowed to be served stale. The refresher stops when the
// context is canceled.
func (c *Certificate) StartRefresher(ctx context.Context) {
	if c == nil || !c.Private.Stale(ctx) {
		return
	}
	source := c.Certificate
	if c.Private.CacheDuration() < source.CacheDuration() {
		source = c.Private
	}
	startRefresher(ctx, source, c.Logger, "certificate", c.load)
}

// Loads the certificate from the loaders and parses it. If this returns
// an error then the existing certificate will not be changed.
func (c *Certificate) load(ctx context.Context) error {
	certRaw, err := c.Certificate.Fetch(ctx)
	if err != nil {
		return err
	}
	keyRaw, err := c.Private.Fetch(ctx)
	if err != nil {
		return err
	}
	cert, err := tls.X509KeyPair(certRaw, keyRaw)
	if err != nil {
		return fmt.Errorf(
			"error loading certificate from '%s'/'%s': %s",
			c.Certificate.URL(ctx),
			c.Private.URL(ctx),
			err.Error())
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.cert = &cert
	return nil
}
