package access

import (
	"net"
	"net/http"
	"strings"

	"github.com/liquidgecka/stampfmt/httpserver/request"
)

// Handles CIDR white listing requests.
type WhiteList struct {
	// A list of IP/Mask combinations that can be used to limit who can
	// access a given resource within the HTTP server.
	CIDRs []net.IPNet

	// Allow the following IPs to set the value of RemoteAddr via the
	// X-Forwarded-For header. This should be restricted to a list of
	// trusted hosts as they will effectively be able to circumvent the
	// IP white listing process.
	AllowXForwardedForFrom []net.IPNet
}

// Checks a given request and sees if it should be allowed.
func (w *WhiteList) check(ir *request.Request) bool {
	ipStr, _, err := net.SplitHostPort(ir.Request.RemoteAddr)
	if err != nil {
		// http.Server always sets RemoteAddr to IP:Port.
		panic(err)
	}
	ip := net.ParseIP(ipStr)
	if xff := ir.Request.Header.Get("X-Forwarded-For"); xff != "" {
		for _, ipnet := range w.AllowXForwardedForFrom {
			if ipnet.Contains(ip) {
				// The left most address is the original client.
				first, _, _ := strings.Cut(xff, ",")
				ip = net.ParseIP(strings.TrimSpace(first))
				break
			}
		}
	}
	for _, ipnet := range w.CIDRs {
		if ipnet.Contains(ip) {
			return true
		}
	}
	return false
}

func (w *WhiteList) assert(ir *request.Request) {
	panic(&request.HTTPError{
		Status:   http.StatusForbidden,
		Response: "IP is not allowed to access this resource.",
	})
}
