package httpserver

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/liquidgecka/testlib"

	"github.com/liquidgecka/stampfmt/httpserver/access"
	"github.com/liquidgecka/stampfmt/human"
	"github.com/liquidgecka/stampfmt/icon"
	"github.com/liquidgecka/stampfmt/internal/sloghelper"
)

func testSettings(T *testlib.T) *Settings {
	block, err := aes.NewCipher(bytes.Repeat([]byte{1}, 16))
	T.ExpectSuccess(err)
	return &Settings{
		Logger: sloghelper.Discard(),
		Format: FormatSettings{
			Pattern:  "Y-m-d H:i:s",
			Location: time.UTC,
			Labels:   human.DefaultLabels,
			Icons:    icon.DefaultRewriter,
		},
		Cookie: &CookieSettings{
			Name:   "stampfmt",
			Path:   "/",
			MaxAge: time.Hour,
			Keys: func(context.Context) ([]cipher.Block, error) {
				return []cipher.Block{block}, nil
			},
			HashKey: func(context.Context) ([]byte, error) {
				return bytes.Repeat([]byte{2}, 32), nil
			},
		},
	}
}

func newTestServer(T *testlib.T, mods ...func(*Settings)) *server {
	settings := testSettings(T)
	for _, mod := range mods {
		mod(settings)
	}
	return New(settings).(*server)
}

// Runs a request through the server, optionally sending a cookie header.
func do(s *server, method, target, cookie string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	s.ServeHTTP(w, req)
	return w
}

// Returns the name=value part of the first Set-Cookie header.
func setCookie(w *httptest.ResponseRecorder) string {
	value, _, _ := strings.Cut(w.Header().Get("Set-Cookie"), ";")
	return value
}

func TestNew_Validation(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	T.ExpectPanic(
		func() { New(&Settings{}) },
		"settings.Logger is a required field.")
	T.ExpectPanic(
		func() {
			New(&Settings{Logger: sloghelper.Discard(), ReadTimeout: -1})
		},
		"settings.ReadTimeout is negative.")
	T.ExpectPanic(
		func() {
			New(&Settings{
				Logger: sloghelper.Discard(),
				Cookie: &CookieSettings{Name: "x"},
			})
		},
		"settings.Cookie requires Keys and HashKey.")
}

func TestServer_Format(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	s := newTestServer(T)
	w := do(s, "GET", "/format?ts=1473120000", "")
	T.Equal(w.Code, http.StatusOK)
	T.Equal(w.Body.String(), "2016-09-06 00:00:00\n")
	T.Equal(w.Header().Get("Content-Type"), "text/plain; charset=utf-8")

	w = do(s, "GET", "/format?ts=1473120000000&pattern=D%2C+d+M+H:i&tz=Asia/Shanghai", "")
	T.Equal(w.Body.String(), "Tue, 06 Sep 08:00\n")

	w = do(s, "GET", "/format?ts=NaN&pattern=Y-m-d", "")
	T.Equal(w.Body.String(), "--\n")

	w = do(s, "GET", "/format?ts=abc", "")
	T.Equal(w.Code, http.StatusBadRequest)

	w = do(s, "GET", "/format?tz=Nowhere/Else", "")
	T.Equal(w.Code, http.StatusBadRequest)
	T.Equal(w.Body.String(), "Unknown timezone 'Nowhere/Else'.\n")

	w = do(s, "GET", "/format?pattern="+strings.Repeat("Y", MaxPatternLength+1), "")
	T.Equal(w.Code, http.StatusBadRequest)
}

func TestServer_Human(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	s := newTestServer(T)
	T.Equal(do(s, "GET", "/size?n=1500000", "").Body.String(), "1.43MB\n")
	T.Equal(do(s, "GET", "/size", "").Body.String(), "0K\n")
	T.Equal(do(s, "GET", "/number?n=15500", "").Body.String(), "1.6万\n")
	T.Equal(do(s, "GET", "/money?v=1234.5&cents=1", "").Body.String(), "1,234.50\n")
	T.Equal(do(s, "GET", "/money?v=1234.5", "").Body.String(), "1,234\n")
	T.Equal(do(s, "GET", "/money?v=NaN", "").Body.String(), "0\n")
	T.Equal(do(s, "GET", "/number?n=many", "").Code, http.StatusBadRequest)

	s = newTestServer(T, func(s *Settings) {
		s.Format.Labels = human.Labels{
			Zero:           "empty",
			BelowKilo:      "tiny",
			TenThousand:    "0k",
			HundredMillion: "00m",
		}
	})
	T.Equal(do(s, "GET", "/size?n=0", "").Body.String(), "empty\n")
	T.Equal(do(s, "GET", "/size?n=10", "").Body.String(), "tiny\n")
}

func TestServer_Icon(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	s := newTestServer(T)
	w := do(s, "GET", "/icon?url=http%3A%2F%2Fimg.example.com%2Fapp%2Ficon.png&size=50", "")
	T.Equal(w.Body.String(), "http://img.example.com/app/icon_50x50.png\n")
	w = do(s, "GET", "/icon?url=http%3A%2F%2Fimg.example.com%2Fapp%2Ficon.png", "")
	T.Equal(w.Body.String(), "http://img.example.com/app/icon_130x130.png\n")
	w = do(s, "GET", "/icon", "")
	T.Equal(w.Code, http.StatusBadRequest)
	T.Equal(w.Body.String(), "Missing 'url' parameter.\n")
}

func TestServer_Routing(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	s := newTestServer(T)
	T.Equal(do(s, "GET", "/nope", "").Code, http.StatusNotFound)
	T.Equal(do(s, "POST", "/nope", "").Code, http.StatusNotFound)

	w := do(s, "POST", "/format", "")
	T.Equal(w.Code, http.StatusMethodNotAllowed)
	T.Equal(w.Header().Get("Allow"), "GET, HEAD")

	w = do(s, "PUT", "/format", "")
	T.Equal(w.Code, http.StatusMethodNotAllowed)

	w = do(s, "GET", "/_debug/stack", "")
	T.Equal(w.Code, http.StatusNotFound)
}

func TestServer_Debug(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	s := newTestServer(T, func(s *Settings) { s.EnableDebugPaths = true })
	w := do(s, "GET", "/_debug/stack", "")
	T.Equal(w.Code, http.StatusOK)
	T.Equal(strings.Contains(w.Body.String(), "goroutine"), true)
	T.Equal(do(s, "GET", "/_debug/cmdline", "").Code, http.StatusOK)
	T.Equal(do(s, "GET", "/_debug/unknown", "").Code, http.StatusNotFound)
}

func TestServer_Health(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	s := newTestServer(T)
	w := do(s, "GET", "/_health", "")
	T.Equal(w.Code, http.StatusOK)
	T.Equal(w.Body.String(), "ok\n")

	T.ExpectSuccess(s.Shutdown(context.Background()))
	w = do(s, "GET", "/_health", "")
	T.Equal(w.Code, http.StatusServiceUnavailable)
	T.Equal(w.Header().Get("Connection"), "close")
}

func TestServer_ACL(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	_, private, err := net.ParseCIDR("10.0.0.0/8")
	T.ExpectSuccess(err)
	s := newTestServer(T, func(s *Settings) {
		s.ACL = &access.ACL{
			Required: []access.Method{
				&access.WhiteList{CIDRs: []net.IPNet{*private}},
			},
		}
	})

	// httptest requests come from 192.0.2.1.
	w := do(s, "GET", "/format", "")
	T.Equal(w.Code, http.StatusForbidden)
	T.Equal(do(s, "GET", "/_health", "").Code, http.StatusOK)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/size?n=0", nil)
	req.RemoteAddr = "10.1.2.3:4567"
	s.ServeHTTP(w, req)
	T.Equal(w.Code, http.StatusOK)
}

func TestServer_Prefs(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	s := newTestServer(T)

	// Nothing stored yet.
	T.Equal(do(s, "GET", "/_prefs", "").Code, http.StatusNotFound)

	w := do(s, "POST", "/_prefs?pattern=Y+H&tz=Asia/Shanghai", "")
	T.Equal(w.Code, http.StatusOK)
	T.Equal(strings.HasPrefix(w.Body.String(), "pattern=Y H\ntz=Asia/Shanghai\nupdated="), true)
	T.Equal(strings.Contains(w.Header().Get("Set-Cookie"), ";expires="), true)
	T.Equal(strings.Contains(w.Header().Get("Set-Cookie"), ";path=/"), true)
	cookie := setCookie(w)
	T.Equal(strings.HasPrefix(cookie, "stampfmt="), true)

	// The stored preferences apply to /format.
	w = do(s, "GET", "/format?ts=1473120000", cookie)
	T.Equal(w.Body.String(), "2016 08\n")

	// Request parameters win over the cookie.
	w = do(s, "GET", "/format?ts=1473120000&pattern=H&tz=UTC", cookie)
	T.Equal(w.Body.String(), "00\n")

	w = do(s, "GET", "/_prefs", cookie)
	T.Equal(w.Code, http.StatusOK)
	T.Equal(strings.HasPrefix(w.Body.String(), "pattern=Y H\ntz=Asia/Shanghai\n"), true)

	w = do(s, "DELETE", "/_prefs", cookie)
	T.Equal(w.Code, http.StatusOK)
	T.Equal(strings.Contains(w.Header().Get("Set-Cookie"), ";expires="), true)

	// Deleting with nothing stored is fine.
	T.Equal(do(s, "DELETE", "/_prefs", "").Code, http.StatusOK)

	T.Equal(do(s, "POST", "/_prefs?tz=Nowhere/Else", "").Code, http.StatusBadRequest)
}

func TestServer_Prefs_Tampered(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	s := newTestServer(T)
	w := do(s, "POST", "/_prefs?pattern=Y", "")
	cookie := setCookie(w)

	// Sealed with a different hash key the cookie is ignored.
	other := newTestServer(T, func(s *Settings) {
		s.Cookie.HashKey = func(context.Context) ([]byte, error) {
			return bytes.Repeat([]byte{3}, 32), nil
		}
	})
	w = do(other, "GET", "/format?ts=1473120000", cookie)
	T.Equal(w.Body.String(), "2016-09-06 00:00:00\n")
	T.Equal(do(other, "GET", "/_prefs", cookie).Code, http.StatusNotFound)

	w = do(s, "GET", "/format?ts=1473120000", "stampfmt=garbage")
	T.Equal(w.Body.String(), "2016-09-06 00:00:00\n")
}

func TestServer_PrefsDisabled(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	s := newTestServer(T, func(s *Settings) { s.Cookie = nil })
	T.Equal(do(s, "GET", "/_prefs", "").Code, http.StatusNotFound)
	T.Equal(do(s, "POST", "/_prefs?pattern=Y", "").Code, http.StatusNotFound)
	w := do(s, "GET", "/format?ts=1473120000", "stampfmt=anything")
	T.Equal(w.Body.String(), "2016-09-06 00:00:00\n")
}

func TestServer_AccessLog(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	buffer := &bytes.Buffer{}
	s := newTestServer(T, func(s *Settings) {
		s.AccessLogger = slog.New(slog.NewJSONHandler(buffer, nil))
	})
	do(s, "GET", "/nope", "")
	T.Equal(strings.Contains(buffer.String(), `"status":404`), true)
	T.Equal(strings.Contains(buffer.String(), `"url":"/nope"`), true)
}

func TestServer_ListenAndRun(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	s := newTestServer(T, func(s *Settings) { s.Addr = "127.0.0.1" })
	T.ExpectSuccess(s.Listen())
	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	resp, err := http.Get("http://" + s.Addr() + "/_health")
	T.ExpectSuccess(err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	T.ExpectSuccess(err)
	T.Equal(string(body), "ok\n")

	T.ExpectSuccess(s.Shutdown(context.Background()))
	T.ExpectSuccess(<-done)
}
