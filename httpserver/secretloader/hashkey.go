package secretloader

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// The size of the key used to authenticate cookies.
const HashKeySize = 32

// The key used to authenticate preference cookies. The secret holds the
// key hex encoded; surrounding whitespace is ignored.
type HashKey struct {
	// The source for the key.
	Source Loader

	// Logs problems refreshing the key.
	Logger *slog.Logger

	cache cached[[]byte]
}

// Returns the current key.
func (h *HashKey) Key(ctx context.Context) ([]byte, error) {
	return h.cache.get(ctx, h.Source, ParseHashKey)
}

func (h *HashKey) PreLoad(ctx context.Context) error {
	if h == nil || h.Source == nil || !h.Source.PreLoad(ctx) {
		return nil
	}
	_, err := h.cache.load(ctx, h.Source, ParseHashKey)
	return err
}

// Starts the cache refresher.
func (h *HashKey) StartRefresher(ctx context.Context) {
	if h == nil {
		return
	}
	startRefresher(ctx, h.Source, h.Logger, "hash key", func(ctx context.Context) error {
		_, err := h.cache.load(ctx, h.Source, ParseHashKey)
		return err
	})
}

// Decodes a hex encoded hash key, checking its size.
func ParseHashKey(raw []byte) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	key := make([]byte, hex.DecodedLen(len(raw)))
	if _, err := hex.Decode(key, raw); err != nil {
		return nil, fmt.Errorf("hash key is not a valid hex value: %s", err.Error())
	}
	if len(key) != HashKeySize {
		return nil, fmt.Errorf(
			"hash key must be %d bytes, not %d",
			HashKeySize,
			len(key))
	}
	return key, nil
}
