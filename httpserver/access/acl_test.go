package access

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/liquidgecka/testlib"

	"github.com/liquidgecka/stampfmt/httpserver/request"
	"github.com/liquidgecka/stampfmt/httpserver/secretloader"
)

// Nil receivers should be safe to use
func TestNilACLSafe(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	var a *ACL
	ir := &request.Request{
		Request: &http.Request{
			RemoteAddr: "1.1.1.1:1000",
		},
	}
	a.Assert(ir)
	T.Equal(a.Allowed(ir), true)
}

// {SHA} hash of "secret".
const htpasswdLine = "alice:{SHA}5en6G6MezRroT3XKqkdPOmY/BfQ=:admin\n"

func newBasicAuth(T *testlib.T, tags []string) *BasicAuth {
	name := filepath.Join(T.TempDir(), "htpasswd")
	T.ExpectSuccess(os.WriteFile(name, []byte(htpasswdLine), 0600))
	l, err := secretloader.NewLoader(name, nil)
	T.ExpectSuccess(err)
	users := &secretloader.HTPasswd{Source: l}
	T.ExpectSuccess(users.PreLoad(context.Background()))
	return &BasicAuth{Users: users, Realm: "stampfmt", UserTags: tags}
}

func newAuthRequest(remote, user, pass string) *request.Request {
	req := httptest.NewRequest(http.MethodGet, "/_debug/", nil)
	req.RemoteAddr = remote
	if user != "" {
		req.SetBasicAuth(user, pass)
	}
	return request.New(httptest.NewRecorder(), req, nil)
}

func TestBasicAuth(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	b := newBasicAuth(T, []string{"admin"})
	T.Equal(b.check(newAuthRequest("1.1.1.1:1", "alice", "secret")), true)
	T.Equal(b.check(newAuthRequest("1.1.1.1:1", "alice", "wrong")), false)
	T.Equal(b.check(newAuthRequest("1.1.1.1:1", "", "")), false)

	b = newBasicAuth(T, []string{"ops"})
	T.Equal(b.check(newAuthRequest("1.1.1.1:1", "alice", "secret")), false)

	T.Equal((&BasicAuth{}).check(newAuthRequest("1.1.1.1:1", "alice", "secret")), false)
}

func TestBasicAuth_Assert(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	b := &BasicAuth{Realm: "stampfmt"}
	ir := newAuthRequest("1.1.1.1:1", "", "")
	T.ExpectPanic(
		func() { b.assert(ir) },
		&request.HTTPError{
			Status:   http.StatusUnauthorized,
			Response: "Authentication is required.",
		})
	T.Equal(ir.Header().Get("WWW-Authenticate"), `Basic realm="stampfmt"`)
}

func TestACL(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	w := &WhiteList{CIDRs: []net.IPNet{makeIPNet("10.0.0.0/8")}}
	b := newBasicAuth(T, nil)

	// Either the network or a password.
	a := &ACL{Any: []Method{w, b}}
	T.Equal(a.Allowed(newAuthRequest("10.1.1.1:1", "", "")), true)
	T.Equal(a.Allowed(newAuthRequest("9.9.9.9:1", "alice", "secret")), true)
	T.Equal(a.Allowed(newAuthRequest("9.9.9.9:1", "", "")), false)

	// Both the network and a password.
	a = &ACL{Required: []Method{w, b}}
	T.Equal(a.Allowed(newAuthRequest("10.1.1.1:1", "alice", "secret")), true)
	T.Equal(a.Allowed(newAuthRequest("10.1.1.1:1", "", "")), false)
	T.Equal(a.Allowed(newAuthRequest("9.9.9.9:1", "alice", "secret")), false)
}
