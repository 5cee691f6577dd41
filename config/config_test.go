package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/liquidgecka/testlib"

	"github.com/liquidgecka/stampfmt/human"
	"github.com/liquidgecka/stampfmt/icon"
)

const (
	testAESKey  = "000102030405060708090a0b0c0d0e0f"
	testHashKey = "" +
		"000102030405060708090a0b0c0d0e0f" +
		"101112131415161718191a1b1c1d1e1f"
)

// Writes contents to a config file in a new temporary directory, returning
// the directory and the file name.
func writeConfig(T *testlib.T, contents string) (string, string) {
	dir := T.TempDir()
	name := filepath.Join(dir, "stampfmt.conf")
	T.ExpectSuccess(os.WriteFile(name, []byte(contents), 0644), "writing config")
	return dir, name
}

func TestParse_Defaults(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	_, name := writeConfig(T, "")
	c, err := Parse(name)
	T.ExpectSuccess(err, "parsing")
	T.Equal(c.Formatter().Pattern(), "Y-m-d H:i:s")
	T.Equal(c.Resolver().Location, time.Local)
	T.Equal(c.Labels(), human.DefaultLabels)
	T.Equal(c.Icons(), icon.DefaultRewriter)
	T.Equal(c.GetPIDFile(), "")
	T.Equal(c.top.Server.port, 1092)
	T.Equal(c.top.Server.maxHeaderBytes, 1<<20)
	T.Equal(*c.top.Server.ReadTimeout, time.Minute)
	T.Equal(*c.top.Server.IdleTimeout, time.Minute*5)
	T.Equal(c.top.Server.ACL.access() == nil, true)
	T.Equal(c.top.Server.HealthCheckACL.access() == nil, false)
	T.Equal(c.top.Cookie.settings() == nil, true)

	d := Default()
	T.Equal(d.Formatter().Pattern(), "Y-m-d H:i:s")
	T.Equal(d.top.Server.port, 1092)
}

func TestParse_Sections(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	dir, name := writeConfig(T, "")
	contents := fmt.Sprintf(`
pidfile = %q

[format]
pattern = "Y/m/d"
timezone = "Asia/Shanghai"

[human]
zero = "none"
ten_thousand = "w"

[icon]
default_size = 100
sizes = [50, 100]
suffix = ".jpg"

[server]
addr = "127.0.0.1"
port = "8080"
max_header_bytes = "64kib"
read_timeout = "30s"
reply_with_error = true

[server.acl]
white_list_cidrs = ["10.0.0.0/8"]

[log]
file = %q
format = "json"
`,
		filepath.Join(dir, "stampfmt.pid"),
		filepath.Join(dir, "stampfmt.log"))
	T.ExpectSuccess(os.WriteFile(name, []byte(contents), 0644), "writing")

	c, err := Parse(name)
	T.ExpectSuccess(err, "parsing")
	T.Equal(c.GetPIDFile(), filepath.Join(dir, "stampfmt.pid"))
	T.Equal(c.Formatter().Pattern(), "Y/m/d")
	T.Equal(c.Resolver().Location.String(), "Asia/Shanghai")
	T.Equal(c.Formatter().FormatEpoch(c.Resolver(), 1473120000), "2016/09/06")

	labels := c.Labels()
	T.Equal(labels.Zero, "none")
	T.Equal(labels.BelowKilo, human.DefaultLabels.BelowKilo)
	T.Equal(labels.TenThousand, "w")

	T.Equal(c.Icons(), icon.Rewriter{
		DefaultSize: 100,
		Sizes:       []int{50, 100},
		Suffix:      ".jpg",
	})

	T.Equal(c.top.Server.Addr.String(), "127.0.0.1")
	T.Equal(c.top.Server.port, 8080)
	T.Equal(c.top.Server.maxHeaderBytes, 64*1024)
	T.Equal(*c.top.Server.ReadTimeout, 30*time.Second)
	T.Equal(*c.top.Server.ReplyWithError, true)
	T.Equal(len(c.top.Server.ACL.access().Any), 1)

	T.ExpectSuccess(c.InitializeLogging(), "logging")
	T.NotEqual(c.GetLogger(), nil)
	T.Equal(len(c.GetRotators()), 1)
	T.Equal(c.GetRotators()[0].FileName(), filepath.Join(dir, "stampfmt.log"))
	T.NotEqual(c.GetServer(), nil)
	T.Equal(c.GetServer(), c.GetServer())
	T.ExpectSuccess(c.PreLoadSecrets(context.Background()), "preloading")
}

func TestParse_Cookie(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	dir, name := writeConfig(T, "")
	contents := fmt.Sprintf(`
[cookie]
name = "prefs"
domain = "example.com"
max_age = "1h"
aes_keys = [%q]
hash_key = %q

[server.access_log]
file = %q

[log]
file = %q
`,
		testAESKey,
		testHashKey,
		filepath.Join(dir, "access.log"),
		filepath.Join(dir, "stampfmt.log"))
	T.ExpectSuccess(os.WriteFile(name, []byte(contents), 0644), "writing")

	c, err := Parse(name)
	T.ExpectSuccess(err, "parsing")
	s := c.top.Cookie.settings()
	T.Equal(s.Name, "prefs")
	T.Equal(s.Path, "/")
	T.Equal(s.Domain, "example.com")
	T.Equal(s.MaxAge, time.Hour)
	keys, err := s.Keys(context.Background())
	T.ExpectSuccess(err, "keys")
	T.Equal(len(keys), 1)
	hash, err := s.HashKey(context.Background())
	T.ExpectSuccess(err, "hash key")
	T.Equal(len(hash), 32)

	T.Equal(len(c.GetRotators()), 2)
	T.NotEqual(c.GetServer(), nil)
}

func TestParse_SecretFiles(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	dir, name := writeConfig(T, "")
	keys := filepath.Join(dir, "keys.json")
	hash := filepath.Join(dir, "hash.key")
	T.ExpectSuccess(
		os.WriteFile(keys, []byte(`["`+testAESKey+`"]`), 0600),
		"writing keys")
	T.ExpectSuccess(
		os.WriteFile(hash, []byte(testHashKey+"\n"), 0600),
		"writing hash key")
	contents := fmt.Sprintf(`
[cookie]
aes_keys_url = %q
hash_key_url = %q
`,
		"file://"+keys,
		hash+"?stale=false")
	T.ExpectSuccess(os.WriteFile(name, []byte(contents), 0644), "writing")

	c, err := Parse(name)
	T.ExpectSuccess(err, "parsing")
	T.NotEqual(c.top.Cookie.aesKeysLoader, nil)
	T.NotEqual(c.top.Cookie.hashKeyLoader, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	T.ExpectSuccess(c.PreLoadSecrets(ctx), "preloading")
	c.StartSecretRefreshers(ctx)

	s := c.top.Cookie.settings()
	blocks, err := s.Keys(ctx)
	T.ExpectSuccess(err, "keys")
	T.Equal(len(blocks), 1)
	key, err := s.HashKey(ctx)
	T.ExpectSuccess(err, "hash key")
	T.Equal(len(key), 32)
}

func TestParse_AWSProfiles(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	_, name := writeConfig(T, `
[aws.main]
key_id = "AKIAEXAMPLE"
secret_key = "secret"
region = "us-east-1"

[cookie]
aes_keys_url = "sm://main/cookie-keys"
hash_key_url = "sm://main/cookie-hash"
`)
	c, err := Parse(name)
	T.ExpectSuccess(err, "parsing")
	T.NotEqual(c.top.AWSProfiles["main"].GetSession(), nil)
	T.Equal(c.top.profiles.CheckProfile("main"), true)
	T.Equal(c.top.profiles.CheckProfile("other"), false)
	T.Equal(
		c.top.Cookie.aesKeysLoader.Source.URL(context.Background()),
		"sm://main/cookie-keys")

	_, name = writeConfig(T, `
[aws.main]
key_id = "AKIAEXAMPLE"

[aws.other]
from_environment = true
profile = "default"
assume_role_arn = "arn:aws:s3:::bucket"
`)
	_, err = Parse(name)
	T.ExpectErrorMessage(err, "aws.main.key_id and aws.main.secret_key must be used together.")
	T.ExpectErrorMessage(err, "aws.other: More than one AWS authentication method selected.")
	T.ExpectErrorMessage(err, "aws.other.assume_role_arn is not an iam ARN (it is s3 instead)")
}

func TestParse_Errors(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	_, name := writeConfig(T, `
pidfile = ""

[format]
timezone = "Nowhere/Bogus"

[human]
zero = ""

[icon]
default_size = 10
sizes = [50, 50, -1]
suffix = ""

[cookie]
name = "bad name"
domain = "-example.com"
path = "relative"
aes_keys = ["abc", "zz0102030405060708090a0b0c0d0e0f"]

[server]
addr = "not-an-ip"
port = "70000"
read_timeout = "10ms"
idle_timeout = "500ms"
max_header_bytes = "1k"
tls_certificate_url = "/etc/cert.pem"

[server.debug_paths_acl]
white_list_cidrs = ["10.0.0.0/33"]
basic_auth_required = true

[log]
format = "xml"
`)
	_, err := Parse(name)
	for _, msg := range []string{
		"pidfile can not be empty.",
		"format.timezone is not valid",
		"human.zero can not be empty.",
		"icon.sizes: Duplicate item in the list at index 1: 50",
		"icon.sizes[2] must be positive.",
		"icon.default_size must be one of icon.sizes.",
		"icon.suffix can not be empty.",
		"cookie.name: not a valid cookie name.",
		"cookie.domain: invalid domain.",
		"cookie.path must start with a '/'.",
		"cookie.aes_keys[0] is not a valid AES key length.",
		"cookie.aes_keys[1] is not a valid hex string",
		"cookie.hash_key or cookie.hash_key_url is required.",
		"server.addr is not a valid ip.",
		"server.port is not a valid port.",
		"server.read_timeout must be at least 1s.",
		"server.idle_timeout must be at least 1s.",
		"server.max_header_bytes can not be less than 4KB.",
		"server.tls_certificate_url can not be used when server.tls is false",
		"server.debug_paths_acl.white_list_cidrs: Invalid CIDR '10.0.0.0/33'",
		"server.debug_paths_acl.basic_auth_required is true but no password url was defined.",
		"log.format must be 'plain' or 'json'.",
	} {
		T.ExpectErrorMessage(err, msg)
	}
}

func TestParse_FileErrors(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	dir, name := writeConfig(T, "unknown_key = true\n")
	_, err := Parse(filepath.Join(dir, "missing.conf"))
	T.ExpectErrorMessage(err, "opening configuration")

	_, err = Parse(name)
	T.ExpectErrorMessage(err, "parsing "+name)

	_, name = writeConfig(T, "[format\n")
	_, err = Parse(name)
	T.ExpectErrorMessage(err, "parsing "+name)
}

func TestParse_TLS(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	_, name := writeConfig(T, `
[server]
tls = true
tls_certificate_url = "/etc/stampfmt/cert.pem?preload=false"
`)
	_, err := Parse(name)
	T.ExpectErrorMessage(
		err,
		"server.tls_private_key_url is required when server.tls is true.")

	_, name = writeConfig(T, `
[server]
tls = true
tls_certificate_url = "/etc/stampfmt/cert.pem?preload=false"
tls_private_key_url = "ftp://example.com/key.pem"
`)
	_, err = Parse(name)
	T.ExpectErrorMessage(
		err,
		"server.tls_private_key_url is not valid: unknown URL scheme: ftp")
}

func TestValue_Bytes(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	tests := []struct {
		raw  string
		want int64
		err  string
	}{
		{"10", 10, ""},
		{"1,000", 1000, ""},
		{"4k", 4000, ""},
		{"4 KiB", 4096, ""},
		{"2mib", 2 << 20, ""},
		{"1G", 1000000000, ""},
		{"-5", 0, "can not be negative"},
		{"12parsecs", 0, "unknown byte suffix (parsecs)"},
		{"kb", 0, "invalid numerical value"},
	}
	for _, test := range tests {
		v := value{}
		T.ExpectSuccess(v.UnmarshalText([]byte(test.raw)), test.raw)
		got, err := v.Bytes()
		if test.err == "" {
			T.ExpectSuccess(err, test.raw)
			T.Equal(got, test.want, test.raw)
		} else {
			T.ExpectErrorMessage(err, test.err)
		}
	}
}

func TestHelpers(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	T.Equal(isValidCookieDomain("example.com"), true)
	T.Equal(isValidCookieDomain(".example.com"), true)
	T.Equal(isValidCookieDomain("my-host.example.com"), true)
	T.Equal(isValidCookieDomain(""), false)
	T.Equal(isValidCookieDomain("-example.com"), false)
	T.Equal(isValidCookieDomain("example-.com"), false)
	T.Equal(isValidCookieDomain("example..com"), false)
	T.Equal(isValidCookieDomain("example.com-"), false)
	T.Equal(isValidCookieDomain("exa_mple.com"), false)

	T.Equal(isValidCookieName("stampfmt"), true)
	T.Equal(isValidCookieName("a-b_c.d"), true)
	T.Equal(isValidCookieName(""), false)
	T.Equal(isValidCookieName("a b"), false)
	T.Equal(isValidCookieName("a=b"), false)
	T.Equal(isValidCookieName("é"), false)

	T.Equal(hasDuplicates("x", []string{"a", "b"}), []string(nil))
	T.Equal(
		hasDuplicates("x", []string{"a", "a", "a"}),
		[]string{"x: Duplicate item in the list at index 1: a"})
	T.Equal(
		hasEmpty("x", []string{"a", ""}),
		[]string{"x: List contains an empty string at index 1"})

	loc, err := LoadLocation("LOCAL")
	T.ExpectSuccess(err, "local")
	T.Equal(loc, time.Local)
	_, err = LoadLocation("")
	T.ExpectErrorMessage(err, "empty timezone")
}
