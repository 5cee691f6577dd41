package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/liquidgecka/stampfmt/config"
	"github.com/liquidgecka/stampfmt/httpserver"
	"github.com/liquidgecka/stampfmt/internal/sloghelper"
)

// Common variables that are held for the life of the server.
var (
	Server   httpserver.Server
	Rotators []*sloghelper.Rotator
	log      *slog.Logger
)

// Expected to be set via -ldflags/-X by the linker
var BuildVersion string
var BuildTimeEpoch string

// How long in flight requests get to finish once a shutdown signal
// arrives.
var shutdownGrace = 30 * time.Second

func Version() string {
	version, ts := BuildVersion, BuildTimeEpoch
	if version == "" {
		version, ts = "Unknown", "unknown"
	}
	return fmt.Sprintf(
		"stampfmt: %s ts=%s go=%s\n",
		version,
		ts,
		runtime.Version())
}

func WritePIDFile(file string) error {
	log.LogAttrs(
		context.Background(),
		slog.LevelDebug,
		"Writing pid file.",
		sloghelper.String("file", file))
	return os.WriteFile(file, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// Parses the arguments and does the work, returning the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stampfmt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String(
		"c",
		"",
		"Path to the config file.")
	pattern := fs.String(
		"f",
		"",
		"The date pattern, defaults to the configured pattern.")
	zone := fs.String(
		"z",
		"",
		"Timezone used for dates (UTC, Asia/Shanghai, local...)")
	mode := fs.String(
		"m",
		modeDate,
		"How to format values: date, size, number, money, cents or icon.")
	serve := fs.Bool(
		"serve",
		false,
		"Run the HTTP server.")
	version := fs.Bool(
		"V",
		false,
		"Display the build version and then exit.")
	config.SetupFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(stderr, Version())
		fmt.Fprintf(stderr, ""+
			"usage: stampfmt [-c config] [-f pattern] [-z tz] [-m mode] [value ...]\n"+
			"       stampfmt -c config -serve\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *version {
		fmt.Fprint(stdout, Version())
		return 0
	}

	cnf := config.Default()
	if *configFile != "" {
		var err error
		if cnf, err = config.Parse(*configFile); err != nil {
			fmt.Fprintf(stderr, "%s\n", err.Error())
			return 1
		}
	}

	if *serve {
		if fs.NArg() > 0 {
			fmt.Fprintf(stderr, "-serve does not take any values.\n")
			return 1
		}
		return serveHTTP(cnf, stderr)
	}

	p, err := newPrinter(cnf, *pattern, *zone)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err.Error())
		return 1
	}
	if err := p.print(stdout, *mode, fs.Args()); err != nil {
		fmt.Fprintf(stderr, "%s\n", err.Error())
		return 1
	}
	return 0
}

// Runs the HTTP server until it fails or a SIGINT/SIGTERM shuts it down.
func serveHTTP(cnf *config.Config, stderr io.Writer) int {
	if err := cnf.InitializeLogging(); err != nil {
		fmt.Fprintf(stderr, "%s\n", err.Error())
		return 1
	}
	log = cnf.GetLogger()
	Rotators = cnf.GetRotators()
	Server = cnf.GetServer()
	defer func() {
		for _, r := range Rotators {
			r.Close()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Log some build information.
	log.LogAttrs(
		ctx,
		slog.LevelInfo,
		"Server initializing.",
		sloghelper.String("build-version", BuildVersion),
		sloghelper.String("build-time", BuildTimeEpoch))

	// Start the log rotator and flushers.
	SetupRotation(ctx)
	cnf.StartLogFlushers(ctx, time.Second)

	log.LogAttrs(ctx, slog.LevelInfo, "Loading secrets (if configured).")
	if err := cnf.PreLoadSecrets(ctx); err != nil {
		log.LogAttrs(
			ctx,
			slog.LevelError,
			"Error loading secrets.",
			sloghelper.Error("error", err))
		return 1
	}

	if err := Server.Listen(); err != nil {
		log.LogAttrs(
			ctx,
			slog.LevelError,
			"Unable to listen to the network address.",
			sloghelper.String("server", Server.Addr()),
			sloghelper.Error("error", err))
		return 2
	}

	// Write the pid file (if configured).
	if pidfile := cnf.GetPIDFile(); pidfile != "" {
		if err := WritePIDFile(pidfile); err != nil {
			log.LogAttrs(
				ctx,
				slog.LevelError,
				"Error writing pid file.",
				sloghelper.String("file", pidfile),
				sloghelper.Error("error", err))
			return 1
		}
		defer os.Remove(pidfile)
	}

	// Start the secret refreshers, they stop when ctx is canceled on
	// return.
	cnf.StartSecretRefreshers(ctx)
	SetupShutdown(ctx)

	if err := Server.Run(); err != nil {
		log.LogAttrs(
			ctx,
			slog.LevelError,
			"HTTP Server exited!",
			sloghelper.Error("error", err))
		return 1
	}
	log.LogAttrs(ctx, slog.LevelInfo, "HTTP Server stopped.")
	return 0
}

// Gracefully shuts the server down on SIGINT or SIGTERM.
func SetupShutdown(ctx context.Context) {
	schan := make(chan os.Signal, 1)
	signal.Notify(schan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(schan)
		select {
		case <-ctx.Done():
			return
		case sig := <-schan:
			log.LogAttrs(
				ctx,
				slog.LevelInfo,
				"Shutting down.",
				sloghelper.String("signal", sig.String()))
		}
		sctx, cancel := context.WithTimeout(ctx, shutdownGrace)
		defer cancel()
		if err := Server.Shutdown(sctx); err != nil {
			log.LogAttrs(
				ctx,
				slog.LevelWarn,
				"Shutdown did not complete cleanly.",
				sloghelper.Error("error", err))
		}
	}()
}
