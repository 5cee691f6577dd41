package secretloader

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Fetches the raw bytes of a secret from somewhere. Loaders are created
// from URLs via NewLoader:
//
//	file:/etc/stampfmt/keys.json
//	/etc/stampfmt/keys.json
//	sm://profile/secret-name?cache=10m
//
// Every URL accepts the preload, cache and stale query parameters.
type Loader interface {
	// How long the data in the cache should be kept before its refreshed.
	CacheDuration() time.Duration

	// Fetches the secret from the underlying store.
	Fetch(context.Context) ([]byte, error)

	// Returns true if the data in the secret is stale and needs to be
	// refreshed before the next use.
	IsStale(context.Context) bool

	// True if the data should be preloaded on startup.
	PreLoad(context.Context) bool

	// True if the data is allowed to be stale.
	Stale(context.Context) bool

	// A string representing the URL that was used to load this secret.
	URL(context.Context) string
}

func NewLoader(u string, p Profiles) (Loader, error) {
	ud, err := url.Parse(u)
	if err != nil {
		return nil, err
	}

	// Parse the query so we can get some common query parameters.
	cache := time.Hour
	qv := ud.Query()
	preload, err := boolQuery(qv, "preload", true)
	if err != nil {
		return nil, err
	}
	stale, err := boolQuery(qv, "stale", true)
	if err != nil {
		return nil, err
	}
	if v, ok := qv["cache"]; ok {
		if len(v) != 1 {
			return nil, fmt.Errorf("cache can only have one value")
		}
		if cache, err = time.ParseDuration(v[0]); err != nil {
			return nil, fmt.Errorf("cache value is invalid: %s", err.Error())
		}
		delete(qv, "cache")
	}
	for v := range qv {
		return nil, fmt.Errorf("unknown query '%s'", v)
	}

	switch ud.Scheme {
	case "sm":
		switch {
		case ud.User != nil:
			return nil, fmt.Errorf("user names are not valid on sm: urls")
		case ud.Opaque != "":
			return nil, fmt.Errorf("opaque paths are not valid on sm: urls")
		case ud.Host == "":
			return nil, fmt.Errorf("the profile name is required for sm: urls")
		case ud.Path == "" || ud.Path == "/":
			return nil, fmt.Errorf("the secret name is required for sm: urls")
		case ud.Fragment != "":
			return nil, fmt.Errorf("fragments are not allowed on sm: urls")
		case p == nil || !p.CheckProfile(ud.Host):
			return nil, fmt.Errorf("no AWS profile named '%s'", ud.Host)
		}
		return &secretsManagerLoader{
			expiry:      expiry{preload: preload, cache: cache, stale: stale},
			profileName: ud.Host,
			profiles:    p,
			secret:      strings.TrimPrefix(ud.Path, "/"),
			sourceURL:   u,
		}, nil
	case "", "file":
		file := ud.Path
		switch {
		case ud.User != nil:
			return nil, fmt.Errorf("user names are not allowed in file: urls")
		case ud.Host != "":
			return nil, fmt.Errorf("hosts are not allowed in file: urls")
		case ud.Fragment != "":
			return nil, fmt.Errorf("fragments are not allowed in file: urls")
		case ud.Opaque != "":
			file = ud.Opaque
		case file == "":
			return nil, fmt.Errorf("badly formatted file url")
		}
		return &fileLoader{
			expiry:    expiry{preload: preload, cache: cache, stale: stale},
			file:      file,
			sourceURL: u,
		}, nil
	default:
		return nil, fmt.Errorf("unknown URL scheme: %s", ud.Scheme)
	}
}

// Removes and parses a boolean query parameter.
func boolQuery(qv url.Values, name string, def bool) (bool, error) {
	v, ok := qv[name]
	if !ok {
		return def, nil
	}
	delete(qv, name)
	if len(v) != 1 {
		return false, fmt.Errorf("%s can only have one value", name)
	}
	switch v[0] {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("unknown value for %s", name)
	}
}

// The cache settings shared by every Loader along with the expiration time
// of the data returned by the last Fetch.
type expiry struct {
	preload bool
	cache   time.Duration
	stale   bool

	lock    sync.Mutex
	expires time.Time
}

// How long to keep cached data.
func (e *expiry) CacheDuration() time.Duration {
	return e.cache
}

// Returns true if the data in the cache is stale and needs to be refreshed
// before it can be used.
func (e *expiry) IsStale(ctx context.Context) bool {
	if !e.stale {
		return true
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	return time.Now().After(e.expires)
}

// Returns true if the secret should be loaded at startup.
func (e *expiry) PreLoad(ctx context.Context) bool {
	return e.preload
}

// Returns true if the secret is allowed to be served stale.
func (e *expiry) Stale(ctx context.Context) bool {
	return e.stale
}

// Marks the data as freshly fetched.
func (e *expiry) touch() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.expires = time.Now().Add(e.cache)
}
