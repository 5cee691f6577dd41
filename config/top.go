package config

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/liquidgecka/stampfmt/httpserver/secretloader"
)

type top struct {
	// Defaults for date formatting.
	Format format `toml:"format"`

	// Labels used for sizes and numbers.
	Human humanLabels `toml:"human"`

	// Icon URL rewriting.
	Icon iconSizes `toml:"icon"`

	// The sealed preference cookie. Preferences are disabled when this
	// section is missing.
	Cookie *cookieJar `toml:"cookie"`

	// A mapping of AWS profile configurations by profile name.
	AWSProfiles map[string]*AWS `toml:"aws"`

	// HTTP Server configuration
	Server server `toml:"server"`

	// Log configuration for the process.
	Log log `toml:"log"`

	// If configured then the process id will be written to this file.
	PIDFile *string `toml:"pidfile"`

	// The sessions created for AWSProfiles.
	profiles profiles
}

func (t *top) getProfiles() secretloader.Profiles {
	return t.profiles
}

func (t *top) validate() []string {
	var errors []string

	// AWSProfiles are validated first since secret URLs everywhere else
	// refer to them. Names are walked in order so errors are stable.
	t.profiles = make(profiles, len(t.AWSProfiles))
	names := make([]string, 0, len(t.AWSProfiles))
	for name := range t.AWSProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		profile := t.AWSProfiles[name]
		if profile == nil {
			errors = append(errors, fmt.Sprintf("aws.%s can not be empty.", name))
			continue
		}
		errors = append(errors, profile.validate(name)...)
		t.profiles[name] = profile.GetSession()
	}

	errors = append(errors, t.Format.validate()...)
	errors = append(errors, t.Human.validate()...)
	errors = append(errors, t.Icon.validate()...)
	if t.Cookie != nil {
		errors = append(errors, t.Cookie.validate(t)...)
	}
	errors = append(errors, t.Server.validate(t)...)
	errors = append(errors, t.Log.validate(t, "log")...)

	// PIDFile
	if t.PIDFile != nil && *t.PIDFile == "" {
		errors = append(errors, "pidfile can not be empty.")
	}

	return errors
}

// A very simple implementation of secretloader.Profiles.
type profiles map[string]*session.Session

func (p profiles) CheckProfile(n string) bool {
	_, ok := p[n]
	return ok
}

func (p profiles) GetSession(n string) *session.Session {
	return p[n]
}
