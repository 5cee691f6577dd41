package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/liquidgecka/stampfmt/internal/sloghelper"
)

var (
	defaultLogFormat = "plain"
	defaultLogDebug  = false
)

type log struct {
	// A log file to log too. If not set then logs go to stderr.
	File *string `toml:"file"`

	// Which format to use when logging to the file, valid option are
	// "plain" and "json". Default is plain.
	Format *string `toml:"format"`

	// Enable debug logging for this channel.
	Debug *bool `toml:"debug"`

	// A reference to the "top" object.
	top *top

	// The name passed in to validate() initially.
	name string

	// The logger created for this section.
	logger *slog.Logger

	// Set when logging to a file.
	rotator *sloghelper.Rotator

	// Controls the level of logger.
	leveler *sloghelper.Leveler
}

func (l *log) initLogging(ctx context.Context) error {
	var output io.Writer = os.Stderr
	if l.File != nil {
		rotator, err := sloghelper.NewRotator(ctx, *l.File, nil)
		if err != nil {
			return fmt.Errorf(
				"%s had an error initializing: %s",
				l.name,
				err.Error())
		}
		l.rotator = rotator
		output = rotator
	}

	l.leveler = sloghelper.NewLeveler(slog.LevelInfo)
	if (debug != nil && *debug) || *l.Debug {
		l.leveler.SetLevel(slog.LevelDebug)
	}
	handler, err := sloghelper.NewHandler(output, *l.Format, l.leveler)
	if err != nil {
		return fmt.Errorf("%s: %s", l.name, err.Error())
	}
	if console != nil && *console && l.File != nil {
		handler = sloghelper.TeeHandler{
			handler,
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: l.leveler,
			}),
		}
	}
	l.logger = slog.New(handler)

	// Rotation problems are reported to the main log, even for the
	// access log.
	if l.rotator != nil {
		if &l.top.Log == l {
			l.rotator.SetLogger(l.logger)
		} else {
			l.rotator.SetLogger(l.top.Log.logger.With(
				sloghelper.String("log", l.name)))
		}
	}
	return nil
}

func (l *log) validate(t *top, name string) []string {
	var errors []string

	// Store some information for referencing later.
	l.top = t
	l.name = name

	// File
	if l.File != nil && *l.File == "" {
		errors = append(errors, name+".file can not be empty.")
	}

	// Format
	if l.Format == nil {
		l.Format = &defaultLogFormat
	} else if *l.Format != "plain" && *l.Format != "json" {
		errors = append(errors, name+".format must be 'plain' or 'json'.")
	}

	// Debug
	if l.Debug == nil {
		l.Debug = &defaultLogDebug
	}

	// Return any errors encountered.
	return errors
}
