package secretloader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/liquidgecka/stampfmt/internal/backoff"
	"github.com/liquidgecka/stampfmt/internal/sloghelper"
)

// Holds the parsed form of a secret. The Loader decides when the value is
// stale, parse turns the raw bytes into T. A failed load leaves the
// previous value in place.
type cached[T any] struct {
	lock  sync.Mutex
	value T
}

// Returns the cached value, loading it first if the source says it is
// stale.
func (c *cached[T]) get(
	ctx context.Context,
	source Loader,
	parse func([]byte) (T, error),
) (T, error) {
	if source.IsStale(ctx) {
		return c.load(ctx, source, parse)
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.value, nil
}

// Fetches and parses the secret, replacing the cached value on success.
func (c *cached[T]) load(
	ctx context.Context,
	source Loader,
	parse func([]byte) (T, error),
) (T, error) {
	var zero T
	raw, err := source.Fetch(ctx)
	if err != nil {
		return zero, err
	}
	value, err := parse(raw)
	if err != nil {
		return zero, err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.value = value
	return value, nil
}

// Calls load every interval until the context is canceled. Only sources
// that are allowed to serve stale data need this; the others are fetched
// on every use. A failed load is retried sooner, backing off towards the
// full interval. This is expected to be run as a goroutine.
func refresher(
	ctx context.Context,
	dur time.Duration,
	log *slog.Logger,
	what string,
	load func(context.Context) error,
) {
	log = sloghelper.OrDiscard(log)
	retry := backoff.BackOff{
		Period: dur,
		X:      retryDelay(dur),
		Max:    dur,
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		log.LogAttrs(
			ctx,
			slog.LevelDebug,
			"Refreshing secret.",
			sloghelper.String("secret", what))
		next := dur
		if err := load(ctx); err != nil {
			retry.Failure()
			next = retry.Wait()
			log.LogAttrs(
				ctx,
				slog.LevelError,
				"Error refreshing secret.",
				sloghelper.String("secret", what),
				sloghelper.Duration("retry", next),
				sloghelper.Error("error", err))
		} else {
			retry.Reset()
		}
		timer.Reset(next)
	}
}

// The first retry after a failed refresh.
func retryDelay(dur time.Duration) time.Duration {
	if d := dur / 32; d >= time.Second {
		return d
	} else if dur < time.Second {
		return dur
	}
	return time.Second
}

// Starts refresher for a source if it can serve stale data.
func startRefresher(
	ctx context.Context,
	source Loader,
	log *slog.Logger,
	what string,
	load func(context.Context) error,
) {
	if source == nil || !source.Stale(ctx) {
		return
	}
	if dur := source.CacheDuration(); dur > 0 {
		go refresher(ctx, dur, log, what, load)
	}
}
