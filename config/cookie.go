package config

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/liquidgecka/stampfmt/httpserver"
	"github.com/liquidgecka/stampfmt/httpserver/secretloader"
	"github.com/liquidgecka/stampfmt/internal/sloghelper"
)

var (
	defaultCookieName   = "stampfmt"
	defaultCookiePath   = "/"
	defaultCookieDomain = ""
	defaultCookieMaxAge = time.Hour * 24 * 30
)

// Settings for the sealed preference cookie. The cookie is encrypted with
// AES and authenticated with a HighwayHash key, both of which can be given
// inline (hex) or loaded from a secret URL.
type cookieJar struct {
	Name   *string        `toml:"name"`
	Path   *string        `toml:"path"`
	Domain *string        `toml:"domain"`
	MaxAge *time.Duration `toml:"max_age"`

	// Exactly one of these must be set. The first key seals, every key
	// is tried when opening.
	AESKeys    []string `toml:"aes_keys"`
	AESKeysURL *string  `toml:"aes_keys_url"`

	// Exactly one of these must be set.
	HashKey    *string `toml:"hash_key"`
	HashKeyURL *string `toml:"hash_key_url"`

	top *top

	aesKeys       aesKeyList
	aesKeysLoader *secretloader.AESKeys
	hashKey       staticHashKey
	hashKeyLoader *secretloader.HashKey
}

func (c *cookieJar) initLogging() {
	if c == nil {
		return
	}
	if c.aesKeysLoader != nil {
		c.aesKeysLoader.Logger = c.top.Log.logger.With(
			sloghelper.String("component", "aes-keys-loader"),
			sloghelper.String("url", *c.AESKeysURL))
	}
	if c.hashKeyLoader != nil {
		c.hashKeyLoader.Logger = c.top.Log.logger.With(
			sloghelper.String("component", "hash-key-loader"),
			sloghelper.String("url", *c.HashKeyURL))
	}
}

func (c *cookieJar) preLoad(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.aesKeysLoader.PreLoad(ctx); err != nil {
		return err
	}
	return c.hashKeyLoader.PreLoad(ctx)
}

func (c *cookieJar) startRefresher(ctx context.Context) {
	if c != nil {
		c.aesKeysLoader.StartRefresher(ctx)
		c.hashKeyLoader.StartRefresher(ctx)
	}
}

// Returns the settings for the http server, or nil if preferences are
// disabled.
func (c *cookieJar) settings() *httpserver.CookieSettings {
	if c == nil {
		return nil
	}
	s := &httpserver.CookieSettings{
		Name:   *c.Name,
		Path:   *c.Path,
		Domain: *c.Domain,
		MaxAge: *c.MaxAge,
	}
	if c.aesKeysLoader != nil {
		s.Keys = c.aesKeysLoader.Keys
	} else {
		s.Keys = c.aesKeys.Get
	}
	if c.hashKeyLoader != nil {
		s.HashKey = c.hashKeyLoader.Key
	} else {
		s.HashKey = c.hashKey.Get
	}
	return s
}

func (c *cookieJar) validate(t *top) []string {
	var errors []string
	c.top = t

	// Name
	if c.Name == nil {
		c.Name = &defaultCookieName
	} else if !isValidCookieName(*c.Name) {
		errors = append(errors, "cookie.name: not a valid cookie name.")
	}

	// Path
	if c.Path == nil {
		c.Path = &defaultCookiePath
	} else if len(*c.Path) == 0 || (*c.Path)[0] != '/' {
		errors = append(errors, "cookie.path must start with a '/'.")
	}

	// Domain
	if c.Domain == nil {
		c.Domain = &defaultCookieDomain
	} else if !isValidCookieDomain(*c.Domain) {
		errors = append(errors, "cookie.domain: invalid domain.")
	}

	// MaxAge
	if c.MaxAge == nil {
		c.MaxAge = &defaultCookieMaxAge
	} else if *c.MaxAge < 0 {
		errors = append(errors, "cookie.max_age can not be negative.")
	}

	// AESKeys / AESKeysURL
	switch {
	case c.AESKeys != nil && c.AESKeysURL != nil:
		errors = append(errors,
			"cookie.aes_keys and cookie.aes_keys_url are mutually exclusive.")
	case c.AESKeys != nil:
		errors = append(errors, hasDuplicates("cookie.aes_keys", c.AESKeys)...)
		if len(c.AESKeys) == 0 {
			errors = append(errors, "cookie.aes_keys can not be empty.")
		}
		c.aesKeys = make(aesKeyList, 0, len(c.AESKeys))
		for i, k := range c.AESKeys {
			block, err := parseAESKey(k)
			if err != nil {
				errors = append(errors, fmt.Sprintf(
					"cookie.aes_keys[%d] %s",
					i,
					err.Error()))
				continue
			}
			c.aesKeys = append(c.aesKeys, block)
		}
	case c.AESKeysURL != nil:
		l, err := secretloader.NewLoader(*c.AESKeysURL, c.top.getProfiles())
		if err != nil {
			errors = append(errors, fmt.Sprintf(
				"cookie.aes_keys_url is not valid: %s", err.Error()))
		} else {
			c.aesKeysLoader = &secretloader.AESKeys{Source: l}
		}
	default:
		errors = append(errors,
			"cookie.aes_keys or cookie.aes_keys_url is required.")
	}

	// HashKey / HashKeyURL
	switch {
	case c.HashKey != nil && c.HashKeyURL != nil:
		errors = append(errors,
			"cookie.hash_key and cookie.hash_key_url are mutually exclusive.")
	case c.HashKey != nil:
		key, err := secretloader.ParseHashKey([]byte(*c.HashKey))
		if err != nil {
			errors = append(errors, fmt.Sprintf(
				"cookie.hash_key is not valid: %s", err.Error()))
		}
		c.hashKey = key
	case c.HashKeyURL != nil:
		l, err := secretloader.NewLoader(*c.HashKeyURL, c.top.getProfiles())
		if err != nil {
			errors = append(errors, fmt.Sprintf(
				"cookie.hash_key_url is not valid: %s", err.Error()))
		} else {
			c.hashKeyLoader = &secretloader.HashKey{Source: l}
		}
	default:
		errors = append(errors,
			"cookie.hash_key or cookie.hash_key_url is required.")
	}

	return errors
}

// Decodes a hex encoded AES-128, 192 or 256 key.
func parseAESKey(k string) (cipher.Block, error) {
	switch len(k) * 4 {
	case 128, 192, 256:
	default:
		return nil, fmt.Errorf("is not a valid AES key length.")
	}
	raw, err := hex.DecodeString(k)
	if err != nil {
		return nil, fmt.Errorf("is not a valid hex string: %s", err.Error())
	}
	return aes.NewCipher(raw)
}

// Adapts keys given inline in the configuration to the function the http
// server expects.
type aesKeyList []cipher.Block

func (a aesKeyList) Get(context.Context) ([]cipher.Block, error) {
	return []cipher.Block(a), nil
}

type staticHashKey []byte

func (s staticHashKey) Get(context.Context) ([]byte, error) {
	return []byte(s), nil
}
