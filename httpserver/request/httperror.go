package request

import (
	"fmt"
	"io"
	"net/http"
)

// Raised via panic() from within a handler to abort the request with the
// given status. PanicHandler catches it and serves Response to the client.
// Err, if set, is logged but never shown to the client unless debugging
// output was requested.
type HTTPError struct {
	Status   int
	Response string
	Err      error
}

// Returns an HTTPError for a 400 with a formatted response.
func BadRequest(format string, args ...interface{}) *HTTPError {
	return &HTTPError{
		Status:   http.StatusBadRequest,
		Response: fmt.Sprintf(format, args...),
	}
}

func (h *HTTPError) Error() string {
	if h.Err != nil {
		return fmt.Sprintf("%d %s: %s", h.Status, h.Response, h.Err.Error())
	}
	return fmt.Sprintf("%d %s", h.Status, h.Response)
}

func (h *HTTPError) Unwrap() error {
	return h.Err
}

func (h *HTTPError) ServeError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(h.Status)
	io.WriteString(w, h.Response)
	w.Write([]byte{'\n'})
}
