package request

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/liquidgecka/stampfmt/internal/sloghelper"
)

var nextRequestID uint64

// Wraps a single HTTP request/response cycle. It tracks the status and
// sizes for the access log and exposes helpers for reading query
// parameters that abort the request with a 400 when they are malformed.
type Request struct {
	ID          uint64
	Request     *http.Request
	Context     context.Context
	start       time.Time
	bodyWrapper bodyWrapper
	replyBytes  int64
	response    http.ResponseWriter
	statusCode  int
	log         *slog.Logger
}

func New(
	w http.ResponseWriter,
	req *http.Request,
	l *slog.Logger,
) *Request {
	r := &Request{
		ID:       atomic.AddUint64(&nextRequestID, 1),
		Request:  req,
		Context:  req.Context(),
		start:    time.Now(),
		response: w,
	}
	r.log = sloghelper.OrDiscard(l).With(sloghelper.Uint64("request-id", r.ID))
	r.bodyWrapper.in = req.Body
	req.Body = &r.bodyWrapper
	if r.DebugEnabled() {
		r.log.LogAttrs(
			r.Context,
			slog.LevelDebug,
			"Starting request processing.",
			sloghelper.String("uri", req.URL.String()))
	}
	return r
}

// Logs the access log for this request to the given logger.
func (r *Request) AccessLog(l *slog.Logger) {
	if l == nil {
		return
	}
	status := r.statusCode
	if status == 0 {
		status = http.StatusOK
	}
	l.LogAttrs(
		r.Context,
		slog.LevelInfo,
		"request complete.",
		sloghelper.Time("start", r.start),
		sloghelper.Uint64("request-id", r.ID),
		sloghelper.Int("status", status),
		sloghelper.String("method", r.Request.Method),
		sloghelper.String("url", r.Request.URL.String()),
		sloghelper.String("remote", r.Request.RemoteAddr),
		sloghelper.Int64("bytes-read", r.bodyWrapper.size),
		sloghelper.Int64("bytes-written", r.replyBytes),
		sloghelper.Duration("request-duration", time.Since(r.start)),
	)
}

// Generates a debug log against the request. This is useful when special
// information should be debugged for a specific request ID.
func (r *Request) Debug(msg string, attrs ...slog.Attr) {
	r.log.LogAttrs(r.Context, slog.LevelDebug, msg, attrs...)
}

// Returns true if debug logging is enabled.
func (r *Request) DebugEnabled() bool {
	if r.log == nil {
		return false
	}
	return r.log.Enabled(r.Context, slog.LevelDebug)
}

// Returns the logger tagged with this request's ID.
func (r *Request) Logger() *slog.Logger {
	return r.log
}

// Returns the underlying response headers to the caller.
func (r *Request) Header() http.Header {
	return r.response.Header()
}

// Panic handler. This can be called in a defer from the main request handler
// in order to catch and return panics raised as part of event flow processing.
//
// If a panic is received then this will sent a HTTP response to the caller
// indicating what type of error was received (if HTTPError) or a 500
// indicating that a completely unexpected error happened during the
// request processing cycle.
func (r *Request) PanicHandler(serveError bool) {
	err := recover()
	if err == nil {
		return
	}
	if he, ok := err.(*HTTPError); ok {
		he.ServeError(r)
		if he.Err != nil {
			r.log.LogAttrs(
				r.Context,
				slog.LevelError,
				"Error while processing HTTP request.",
				sloghelper.Error("error", he),
				sloghelper.String("stack", string(debug.Stack())))
			if serveError {
				io.WriteString(r, he.Err.Error())
				r.Write([]byte{'\n'})
			}
		}
		return
	}
	r.log.LogAttrs(
		r.Context,
		slog.LevelError,
		"Unexpected error while processing request.",
		sloghelper.Interface("error", err),
		sloghelper.String("stack", string(debug.Stack())))
	r.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.WriteHeader(http.StatusInternalServerError)
	io.WriteString(r, "Unexpected internal server error.\n")
	if serveError {
		r.Write(debug.Stack())
	}
}

// Returns the named query parameter, or "" if it was not given.
func (r *Request) Query(name string) string {
	return r.Request.URL.Query().Get(name)
}

// Returns the named query parameter, aborting with a 400 if it was not
// given or was empty.
func (r *Request) RequiredQuery(name string) string {
	value := r.Query(name)
	if value == "" {
		panic(BadRequest("Missing '%s' parameter.", name))
	}
	return value
}

// Returns the named query parameter parsed as a float. A missing parameter
// returns def, anything that is not a number aborts with a 400.
func (r *Request) Float64Query(name string, def float64) float64 {
	raw := r.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		panic(&HTTPError{
			Status:   http.StatusBadRequest,
			Response: "Invalid '" + name + "' parameter (expected a number).",
			Err:      errors.Wrap(err, "invalid '"+name+"' parameter"),
		})
	}
	return value
}

// Like Float64Query but for integers.
func (r *Request) IntQuery(name string, def int) int {
	raw := r.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		panic(&HTTPError{
			Status:   http.StatusBadRequest,
			Response: "Invalid '" + name + "' parameter (expected an integer).",
			Err:      errors.Wrap(err, "invalid '"+name+"' parameter"),
		})
	}
	return value
}

// Like Float64Query but for booleans ("1", "true", "0", "false", ...).
func (r *Request) BoolQuery(name string, def bool) bool {
	raw := r.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		panic(&HTTPError{
			Status:   http.StatusBadRequest,
			Response: "Invalid '" + name + "' parameter (expected a boolean).",
			Err:      errors.Wrap(err, "invalid '"+name+"' parameter"),
		})
	}
	return value
}

// Returns the IANA timezone named by the query parameter, or def if it was
// not given. Unknown zones abort with a 400.
func (r *Request) LocationQuery(name string, def *time.Location) *time.Location {
	raw := r.Query(name)
	if raw == "" {
		return def
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		panic(BadRequest("Unknown timezone '%s'.", raw))
	}
	return loc
}

// Writes a complete plain text reply.
func (r *Request) Reply(status int, body string) {
	r.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.WriteHeader(status)
	io.WriteString(r, body)
}

// Returns the status written so far, 0 if nothing was written.
func (r *Request) Status() int {
	return r.statusCode
}

// Writes a status code to to the caller.
func (r *Request) WriteHeader(h int) {
	r.statusCode = h
	r.response.WriteHeader(h)
}

// Writes data to the caller.
func (r *Request) Write(data []byte) (n int, err error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err = r.response.Write(data)
	r.replyBytes += int64(n)
	return
}
