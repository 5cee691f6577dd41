package access

import (
	"github.com/liquidgecka/stampfmt/httpserver/request"
)

// A tool used to validate that a given request is allowed to proceed.
// Implemented by BasicAuth and WhiteList.
type Method interface {
	check(*request.Request) bool
	assert(*request.Request)
}

// Access to an endpoint can be limited by IP white listing, basic auth or
// both. An ACL combines the methods that apply to one endpoint.
type ACL struct {
	// A list of Required accessors. These must be true for all requests that
	// pass through this resource.
	Required []Method

	// A list of optional accessors. At least one of these must be true
	// in order for a request to flow through this resource. If this is not
	// defined then only Required will be used.
	Any []Method
}

// Checks a given Request, panicking with a *request.HTTPError if it is not
// allowed. A nil ACL allows everything.
func (a *ACL) Assert(ir *request.Request) {
	if a == nil {
		return
	}
	for _, r := range a.Required {
		if !r.check(ir) {
			r.assert(ir)
		}
	}
	if len(a.Any) == 0 {
		return
	}
	for _, m := range a.Any {
		if m.check(ir) {
			return
		}
	}
	a.Any[0].assert(ir)
}

// Like Assert but returns false rather than aborting the request.
func (a *ACL) Allowed(ir *request.Request) (ok bool) {
	defer func() {
		if err := recover(); err != nil {
			if _, isHTTP := err.(*request.HTTPError); !isHTTP {
				panic(err)
			}
			ok = false
		}
	}()
	a.Assert(ir)
	return true
}
