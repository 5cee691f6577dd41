package config

import (
	"context"
	"fmt"
	"net"

	"github.com/liquidgecka/stampfmt/httpserver/access"
	"github.com/liquidgecka/stampfmt/httpserver/secretloader"
	"github.com/liquidgecka/stampfmt/internal/sloghelper"
)

var (
	defaultBasicAuthRealm    = "stampfmt"
	defaultBasicAuthRequired = false
	defaultWhiteListRequired = false
	localHostOnlyRequired    = true
)

type acl struct {
	// If defined then Basic Auth will be enabled for this resource. The
	// secret will be loaded via the URL given and must match the htpasswd
	// format (with additional fields allowed as tags for the user.) Those
	// tags can then match tags provided here as a require element.
	BasicAuthHTPasswdURL *string  `toml:"basic_auth_htpasswd_url"`
	BasicAuthRealm       *string  `toml:"basic_auth_realm"`
	BasicAuthUserTags    []string `toml:"basic_auth_user_tags"`

	// If Basic Auth is required then all requests must contain correct
	// basic authentication headers. If its not required then requests are
	// required to match at least one authentication method.
	BasicAuthRequired *bool `toml:"basic_auth_required"`

	// A list of restricted IP/CIDR restrictions that will be applied.
	// Ex: ["127.0.0.1/32", "10.0.0.0/24"]
	WhiteListCIDRs []string `toml:"white_list_cidrs"`

	// Upstream addresses (load balancers, proxies) that are trusted to
	// set X-Forwarded-For.
	AllowXForwardedForFrom []string `toml:"allow_x_forwarded_for_from_cidrs"`

	// If this is set to true then the CIDR list provided above will be
	// required. If not required then having a source IP that matches a
	// CIDR in the white_list will be considered enough to be authenticated
	// and will skip further authentication steps.
	WhiteListRequired *bool `toml:"white_list_required"`

	// A link back to the top of the configuration tree.
	top *top

	// The parsed forms of WhiteListCIDRs and AllowXForwardedForFrom.
	cidrs                  []net.IPNet
	allowXForwardedForFrom []net.IPNet

	// The secret loader used for htpasswd files.
	basicAuth *secretloader.HTPasswd
}

// Returns an ACL that only allows requests from the local host.
func localHostOnly() *acl {
	return &acl{
		WhiteListCIDRs:    []string{"127.0.0.1/32", "::1/128"},
		WhiteListRequired: &localHostOnlyRequired,
	}
}

func (a *acl) access() *access.ACL {
	if a == nil {
		return nil
	}
	acl := &access.ACL{}

	if a.cidrs != nil {
		w := &access.WhiteList{
			AllowXForwardedForFrom: a.allowXForwardedForFrom,
			CIDRs:                  a.cidrs,
		}
		if *a.WhiteListRequired {
			acl.Required = append(acl.Required, w)
		} else {
			acl.Any = append(acl.Any, w)
		}
	}

	if a.basicAuth != nil {
		b := &access.BasicAuth{
			Realm:    *a.BasicAuthRealm,
			Users:    a.basicAuth,
			UserTags: a.BasicAuthUserTags,
		}
		if *a.BasicAuthRequired {
			acl.Required = append(acl.Required, b)
		} else {
			acl.Any = append(acl.Any, b)
		}
	}

	// An acl block with nothing in it protects nothing.
	if len(acl.Required) == 0 && len(acl.Any) == 0 {
		return nil
	}
	return acl
}

func (a *acl) initLogging() {
	if a != nil && a.basicAuth != nil {
		a.basicAuth.Logger = a.top.Log.logger.With(
			sloghelper.String("component", "htpasswd-loader"),
			sloghelper.String("url", *a.BasicAuthHTPasswdURL))
	}
}

func (a *acl) preLoad(ctx context.Context) error {
	if a == nil {
		return nil
	}
	return a.basicAuth.PreLoad(ctx)
}

func (a *acl) startRefresher(ctx context.Context) {
	if a != nil {
		a.basicAuth.StartRefresher(ctx)
	}
}

func (a *acl) validate(top *top, name string) []string {
	var errors []string
	a.top = top

	// BasicAuthHTPasswdURL
	if a.BasicAuthHTPasswdURL != nil {
		l, err := secretloader.NewLoader(
			*a.BasicAuthHTPasswdURL,
			a.top.getProfiles())
		if err != nil {
			errors = append(errors, fmt.Sprintf(
				"%s.basic_auth_htpasswd_url: invalid url: %s",
				name,
				err.Error()))
		} else {
			a.basicAuth = &secretloader.HTPasswd{
				Source: l,
			}
		}
	}

	// BasicAuthRealm
	if a.BasicAuthRealm == nil {
		a.BasicAuthRealm = &defaultBasicAuthRealm
	} else if *a.BasicAuthRealm == "" {
		errors = append(
			errors,
			fmt.Sprintf("%s.basic_auth_realm can not be empty", name))
	}

	// BasicAuthUserTags
	errors = append(
		errors,
		hasDuplicates(name+".basic_auth_user_tags", a.BasicAuthUserTags)...)
	errors = append(
		errors,
		hasEmpty(name+".basic_auth_user_tags", a.BasicAuthUserTags)...)

	// BasicAuthRequired
	switch {
	case a.BasicAuthRequired == nil:
		a.BasicAuthRequired = &defaultBasicAuthRequired
	case !*a.BasicAuthRequired:
	case a.BasicAuthHTPasswdURL == nil:
		errors = append(errors, fmt.Sprintf(
			"%s.basic_auth_required is true but no password url was defined.",
			name))
	}

	// WhiteListCIDRs
	var errs []string
	a.cidrs, errs = parseCIDRs(name+".white_list_cidrs", a.WhiteListCIDRs)
	errors = append(errors, errs...)

	// AllowXForwardedForFrom
	a.allowXForwardedForFrom, errs = parseCIDRs(
		name+".allow_x_forwarded_for_from_cidrs",
		a.AllowXForwardedForFrom)
	errors = append(errors, errs...)

	// WhiteListRequired
	switch {
	case a.WhiteListRequired == nil:
		a.WhiteListRequired = &defaultWhiteListRequired
	case !*a.WhiteListRequired:
	case len(a.WhiteListCIDRs) == 0:
		errors = append(errors, fmt.Sprintf(
			"%s.white_list_required is true, but no white list was defined.",
			name))
	}

	// Return any errors encountered.
	return errors
}

func parseCIDRs(name string, list []string) (nets []net.IPNet, errors []string) {
	for _, cidr := range list {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			errors = append(errors, fmt.Sprintf(
				"%s: Invalid CIDR '%s': %s",
				name,
				cidr,
				err.Error()))
		} else {
			nets = append(nets, *ipnet)
		}
	}
	return
}
