package secretloader

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/liquidgecka/stampfmt/internal/errors"
)

// AES keys used to encrypt preference cookies. The secret is a JSON list
// of hex encoded keys; the first key encrypts, all of them decrypt so keys
// can be rotated without invalidating existing cookies.
type AESKeys struct {
	// The source for AES key data.
	Source Loader

	// Logs problems refreshing the keys.
	Logger *slog.Logger

	cache cached[[]cipher.Block]
}

// Returns the current list of keys loaded from the secret.
func (a *AESKeys) Keys(ctx context.Context) ([]cipher.Block, error) {
	return a.cache.get(ctx, a.Source, parseAESKeys)
}

func (a *AESKeys) PreLoad(ctx context.Context) error {
	if a == nil || a.Source == nil || !a.Source.PreLoad(ctx) {
		return nil
	}
	_, err := a.cache.load(ctx, a.Source, parseAESKeys)
	return err
}

// Starts the cache refresher.
func (a *AESKeys) StartRefresher(ctx context.Context) {
	if a == nil {
		return
	}
	startRefresher(ctx, a.Source, a.Logger, "aes keys", func(ctx context.Context) error {
		_, err := a.cache.load(ctx, a.Source, parseAESKeys)
		return err
	})
}

// Parses the JSON list of keys. Every bad key is reported at once so the
// user doesn't need to edit, reload, edit, reload.
func parseAESKeys(raw []byte) ([]cipher.Block, error) {
	results := []string{}
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no AES keys defined")
	}
	var errs []error
	keys := make([]cipher.Block, len(results))
	for i, encoded := range results {
		decoded, err := hex.DecodeString(encoded)
		if err != nil {
			errs = append(errs, fmt.Errorf(
				"key [%d] is not a valid hex value: %s",
				i,
				err.Error()))
			continue
		}
		switch len(decoded) * 8 {
		case 128, 192, 256:
		default:
			errs = append(errs, fmt.Errorf(
				"key [%d] is not a valid size (128, 192, or 256 bits)",
				i))
			continue
		}
		if keys[i], err = aes.NewCipher(decoded); err != nil {
			errs = append(errs, fmt.Errorf(
				"key [%d] is not a valid AES key: %s",
				i,
				err.Error()))
		}
	}
	if err := errors.NewMultipleError("invalid AES keys", errs); err != nil {
		return nil, err
	}
	return keys, nil
}
