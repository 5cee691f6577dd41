package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/liquidgecka/testlib"
)

// Runs the command, returning the exit code, stdout and stderr.
func runArgs(args ...string) (int, string, string) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	code, out, _ := runArgs("-V")
	T.Equal(code, 0)
	T.Equal(strings.HasPrefix(out, "stampfmt: Unknown ts=unknown go="), true)

	BuildVersion, BuildTimeEpoch = "1.2.3", "1600000000"
	defer func() { BuildVersion, BuildTimeEpoch = "", "" }()
	T.Equal(strings.HasPrefix(Version(), "stampfmt: 1.2.3 ts=1600000000 "), true)
}

func TestRun_Dates(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	code, out, _ := runArgs(
		"-z", "UTC", "-f", `Y-m-d H:i:s \a\t U`, "1473120000", "1473167109000")
	T.Equal(code, 0)
	T.Equal(out, ""+
		"2016-09-06 00:00:00 at 1473120000\n"+
		"2016-09-06 13:05:09 at 1473167109\n")

	code, out, _ = runArgs("-z", "Asia/Shanghai", "-f", "c", "1483157580")
	T.Equal(code, 0)
	T.Equal(out, "2016-12-31T12:13:00+08:00\n")

	// No values formats the current time.
	code, out, _ = runArgs("-z", "UTC", "-f", "Y")
	T.Equal(code, 0)
	T.Equal(len(out), 5)

	code, _, errs := runArgs("-z", "UTC", "yesterday")
	T.Equal(code, 1)
	T.Equal(strings.Contains(errs, `invalid timestamp "yesterday"`), true)

	code, _, errs = runArgs("-z", "Mars/Olympus", "1")
	T.Equal(code, 1)
	T.Equal(strings.Contains(errs, "invalid timezone"), true)
}

func TestRun_Modes(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	tests := []struct {
		mode   string
		values []string
		output string
	}{
		{"size", []string{"0", "1536", "1048576"}, "0K\n1.5KB\n1MB\n"},
		{"number", []string{"7", "15500"}, "7\n1.6万\n"},
		{"money", []string{"1234567.891"}, "1,234,567\n"},
		{"cents", []string{"1234567.891", "0"}, "1,234,567.89\n0.00\n"},
		{
			"icon",
			[]string{
				"http://img.example.com/app/icon.png@50",
				"http://img.example.com/app/icon.png",
			},
			"" +
				"http://img.example.com/app/icon_50x50.png\n" +
				"http://img.example.com/app/icon_130x130.png\n",
		},
	}
	for _, test := range tests {
		args := append([]string{"-m", test.mode}, test.values...)
		code, out, errs := runArgs(args...)
		T.Equal(code, 0, test.mode+": "+errs)
		T.Equal(out, test.output, test.mode)
	}

	code, _, errs := runArgs("-m", "size")
	T.Equal(code, 1)
	T.Equal(strings.Contains(errs, "mode size requires at least one value"), true)

	code, _, errs = runArgs("-m", "size", "lots")
	T.Equal(code, 1)
	T.Equal(strings.Contains(errs, `invalid size "lots"`), true)

	code, _, errs = runArgs("-m", "weather", "1")
	T.Equal(code, 1)
	T.Equal(strings.Contains(errs, "unknown mode: weather"), true)

	code, _, _ = runArgs("-no-such-flag")
	T.Equal(code, 1)
}

func TestRun_Config(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	dir := T.TempDir()
	name := filepath.Join(dir, "stampfmt.conf")
	T.ExpectSuccess(os.WriteFile(name, []byte(`
[format]
pattern = "Y年n月j日"
timezone = "UTC"

[human]
ten_thousand = "w"
`), 0644), "writing config")

	code, out, _ := runArgs("-c", name, "1473120000")
	T.Equal(code, 0)
	T.Equal(out, "2016年9月6日\n")

	code, out, _ = runArgs("-c", name, "-m", "number", "15500")
	T.Equal(code, 0)
	T.Equal(out, "1.6w\n")

	code, _, errs := runArgs("-c", filepath.Join(dir, "missing.conf"))
	T.Equal(code, 1)
	T.Equal(strings.Contains(errs, "opening configuration"), true)

	code, _, errs = runArgs("-c", name, "-serve", "1")
	T.Equal(code, 1)
	T.Equal(strings.Contains(errs, "-serve does not take any values."), true)
}

func TestRun_ServeListenFailure(t *testing.T) {
	T := testlib.NewT(t)
	defer T.Finish()

	// Hold the port so the server can not bind it.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	T.ExpectSuccess(err, "listening")
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	dir := T.TempDir()
	name := filepath.Join(dir, "stampfmt.conf")
	T.ExpectSuccess(os.WriteFile(name, []byte(fmt.Sprintf(`
[server]
addr = "127.0.0.1"
port = "%d"

[log]
file = %q
`, port, filepath.Join(dir, "stampfmt.log"))), 0644), "writing config")

	code, _, _ := runArgs("-c", name, "-serve")
	T.Equal(code, 2)
}
