//go:build !windows

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/liquidgecka/stampfmt/internal/sloghelper"
)

// Re-opens every log file on SIGHUP so tools like logrotate can move them.
func SetupRotation(ctx context.Context) {
	schan := make(chan os.Signal, 1)
	signal.Notify(schan, syscall.SIGHUP)
	log.LogAttrs(ctx, slog.LevelDebug, "Starting signal handler for SIGHUP.")
	go func() {
		defer signal.Stop(schan)
		for {
			select {
			case <-ctx.Done():
				return
			case <-schan:
			}
			for _, r := range Rotators {
				if err := r.Rotate(ctx); err != nil {
					log.LogAttrs(
						ctx,
						slog.LevelWarn,
						"Log rotation failed.",
						sloghelper.String("file", r.FileName()),
						sloghelper.Error("error", err))
				}
			}
			log.LogAttrs(ctx, slog.LevelDebug, "logs rotated.")
		}
	}()
}
