package httpserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/liquidgecka/stampfmt/httpserver/request"
	"github.com/liquidgecka/stampfmt/internal/sloghelper"
	"github.com/liquidgecka/stampfmt/stamp"
)

// An implementation of Server that exposes the public functions.
type Server interface {
	Addr() string
	Listen() error
	Run() error
	Shutdown(context.Context) error
}

// Creates a new Server that is capable of serving HTTP requests.
func New(settings *Settings) Server {
	// Validate that the settings we were given is valid and
	// will work.
	switch {
	case settings.Logger == nil:
		panic("settings.Logger is a required field.")
	case settings.WriteTimeout < 0:
		panic("settings.WriteTimeout is negative.")
	case settings.ReadTimeout < 0:
		panic("settings.ReadTimeout is negative.")
	case settings.ReadHeaderTimeout < 0:
		panic("settings.ReadHeaderTimeout is negative.")
	case settings.IdleTimeout < 0:
		panic("settings.IdleTimeout is negative.")
	case settings.MaxHeaderBytes < 0:
		panic("settings.MaxHeaderBytes is negative.")
	case settings.Port < 0 || settings.Port > 65535:
		panic("settings.Port is out of range.")
	case settings.Cookie != nil && settings.Cookie.Name == "":
		panic("settings.Cookie.Name can not be empty.")
	case settings.Cookie != nil && (settings.Cookie.Keys == nil ||
		settings.Cookie.HashKey == nil):
		panic("settings.Cookie requires Keys and HashKey.")
	}
	s := &server{
		settings: *settings,
		httpServer: &http.Server{
			WriteTimeout:      settings.WriteTimeout,
			ReadTimeout:       settings.ReadTimeout,
			ReadHeaderTimeout: settings.ReadHeaderTimeout,
			IdleTimeout:       settings.IdleTimeout,
			MaxHeaderBytes:    settings.MaxHeaderBytes,
			ErrorLog:          log.New(io.Discard, "", 0),
		},
		defaultPattern: stamp.Compile(settings.Format.Pattern),
		log:            settings.Logger,
	}
	s.httpServer.Handler = s
	return s
}

type server struct {
	// A copy of the settings defined when the server was created. This is
	// a copy specifically so that the values can not be altered during
	// the operation of the HTTP server.
	settings Settings

	// The underlying HTTP server that is capable of serving requests
	// to a caller.
	httpServer *http.Server

	// The listener that this http server will serve on.
	listener net.Listener

	// The configured default pattern, compiled once.
	defaultPattern *stamp.Formatter

	// Set to one once Shutdown has been called. Health checks start
	// failing so load balancers stop sending traffic.
	shuttingDown int32

	// The logger that is used for all internal logging.
	log *slog.Logger
}

// Returns the address that this server is listening on, or will listen on
// if Listen has not been called yet.
func (s *server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.settings.Addr, fmt.Sprint(s.settings.Port))
}

// Starts the listener.
func (s *server) Listen() error {
	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return err
	}
	s.listener = listener
	return nil
}

// Starts the HTTP server and runs it, returning an error only when it
// has stopped. A server stopped via Shutdown returns nil.
func (s *server) Run() error {
	l := s.listener
	if s.settings.TLSCerts != nil {
		l = tls.NewListener(l, &tls.Config{
			GetCertificate: s.settings.TLSCerts.GetCertificate,
		})
	}
	s.log.LogAttrs(
		context.Background(),
		slog.LevelInfo,
		"Serving HTTP requests.",
		sloghelper.String("addr", s.Addr()))
	if err := s.httpServer.Serve(l); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stops accepting new connections and waits for running requests to
// finish or the context to expire.
func (s *server) Shutdown(ctx context.Context) error {
	atomic.StoreInt32(&s.shuttingDown, 1)
	return s.httpServer.Shutdown(ctx)
}

//
// HTTP Handler functions
//

func (s *server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// We want to capture the response in order to put it in the log. As
	// such we actually wrap the ResponseWriter in an internal implementation
	// that captures details.
	ir := request.New(w, req, s.log)

	// Use the above object to generate a log line at the end of the
	// request.
	if s.settings.AccessLogger != nil {
		defer ir.AccessLog(s.settings.AccessLogger)
	}

	// If there is an error presented via a panic we want to handle that
	// as cleanly as possible. Normally the http.Server will eat this
	// and turn it into an InternalServerError but we want more control
	// over that path.
	defer ir.PanicHandler(s.settings.ReplyWithError)

	if atomic.LoadInt32(&s.shuttingDown) != 0 {
		ir.Header().Set("Connection", "close")
	}

	switch req.Method {
	case http.MethodGet, http.MethodHead:
		s.httpGetMuxer(ir)
	case http.MethodPost:
		s.httpPostMuxer(ir)
	case http.MethodDelete:
		s.httpDeleteMuxer(ir)
	default:
		ir.Header().Set("Allow", "GET, HEAD, POST, DELETE")
		ir.Reply(http.StatusMethodNotAllowed, "Unsupported method.\n")
	}
}

// Every path the server knows along with the methods other than GET it
// accepts.
var paths = map[string][]string{
	"/format":  nil,
	"/size":    nil,
	"/number":  nil,
	"/money":   nil,
	"/icon":    nil,
	"/_health": nil,
	"/_prefs":  {http.MethodPost, http.MethodDelete},
}

// Aborts a request for a path that can not be served with the method
// used: 405 for known paths, 404 otherwise.
func (s *server) unroutable(ir *request.Request) {
	extra, ok := paths[ir.Request.URL.Path]
	if !ok {
		panic(&request.HTTPError{
			Status:   http.StatusNotFound,
			Response: "The URL you are requesting does not exist.",
		})
	}
	ir.Header().Set(
		"Allow",
		strings.Join(append([]string{http.MethodGet, http.MethodHead}, extra...), ", "))
	panic(&request.HTTPError{
		Status:   http.StatusMethodNotAllowed,
		Response: "Unsupported method.",
	})
}

func (s *server) httpGetMuxer(ir *request.Request) {
	path := ir.Request.URL.Path
	if strings.HasPrefix(path, "/_debug/") {
		s.httpDebug(ir)
		return
	}
	switch path {
	case "/_health":
		s.settings.HealthCheckACL.Assert(ir)
		s.httpHealth(ir)
	case "/_prefs":
		s.settings.ACL.Assert(ir)
		s.httpGetPrefs(ir)
	case "/format":
		s.settings.ACL.Assert(ir)
		s.httpFormat(ir)
	case "/size":
		s.settings.ACL.Assert(ir)
		s.httpSize(ir)
	case "/number":
		s.settings.ACL.Assert(ir)
		s.httpNumber(ir)
	case "/money":
		s.settings.ACL.Assert(ir)
		s.httpMoney(ir)
	case "/icon":
		s.settings.ACL.Assert(ir)
		s.httpIcon(ir)
	default:
		s.unroutable(ir)
	}
}

func (s *server) httpPostMuxer(ir *request.Request) {
	switch ir.Request.URL.Path {
	case "/_prefs":
		s.settings.ACL.Assert(ir)
		s.httpSetPrefs(ir)
	default:
		s.unroutable(ir)
	}
}

func (s *server) httpDeleteMuxer(ir *request.Request) {
	switch ir.Request.URL.Path {
	case "/_prefs":
		s.settings.ACL.Assert(ir)
		s.httpDeletePrefs(ir)
	default:
		s.unroutable(ir)
	}
}

// Profiling endpoints, only available when enabled in the settings.
func (s *server) httpDebug(ir *request.Request) {
	if !s.settings.EnableDebugPaths {
		s.unroutable(ir)
	}
	s.settings.DebugPathsACL.Assert(ir)
	switch name := strings.TrimPrefix(ir.Request.URL.Path, "/_debug/"); name {
	case "allocs", "block", "goroutine", "heap", "mutex", "threadcreate":
		pprof.Handler(name).ServeHTTP(ir, ir.Request)
	case "cmdline":
		pprof.Cmdline(ir, ir.Request)
	case "profile":
		pprof.Profile(ir, ir.Request)
	case "trace":
		pprof.Trace(ir, ir.Request)
	case "stack":
		buffer := make([]byte, 1<<16)
		ir.Header().Set("Content-Type", "text/plain; charset=utf-8")
		ir.WriteHeader(http.StatusOK)
		ir.Write(buffer[0:runtime.Stack(buffer, true)])
	default:
		panic(&request.HTTPError{
			Status:   http.StatusNotFound,
			Response: "The URL you are requesting does not exist.",
		})
	}
}

func (s *server) httpHealth(ir *request.Request) {
	if atomic.LoadInt32(&s.shuttingDown) != 0 {
		ir.Reply(http.StatusServiceUnavailable, "shutting down\n")
		return
	}
	ir.Reply(http.StatusOK, "ok\n")
}
