package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/liquidgecka/stampfmt/httpserver"
	"github.com/liquidgecka/stampfmt/human"
	"github.com/liquidgecka/stampfmt/icon"
	"github.com/liquidgecka/stampfmt/stamp"
)

var (
	defaultPattern  = "Y-m-d H:i:s"
	defaultTimezone = "local"
)

type format struct {
	// The default pattern.
	Pattern *string `toml:"pattern"`

	// An IANA zone name ("Asia/Shanghai"), "UTC" or "local".
	Timezone *string `toml:"timezone"`

	formatter *stamp.Formatter
	location  *time.Location
}

func (f *format) validate() []string {
	var errors []string

	// Pattern
	if f.Pattern == nil {
		f.Pattern = &defaultPattern
	} else if len(*f.Pattern) > httpserver.MaxPatternLength {
		errors = append(errors, fmt.Sprintf(
			"format.pattern can not be longer than %d bytes.",
			httpserver.MaxPatternLength))
	}
	f.formatter = stamp.Compile(*f.Pattern)

	// Timezone
	if f.Timezone == nil {
		f.Timezone = &defaultTimezone
	}
	if loc, err := LoadLocation(*f.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf(
			"format.timezone is not valid: %s",
			err.Error()))
	} else {
		f.location = loc
	}

	return errors
}

// Like time.LoadLocation except that "local" in any case is the local
// zone.
func LoadLocation(name string) (*time.Location, error) {
	if strings.EqualFold(name, "local") {
		return time.Local, nil
	} else if name == "" {
		return nil, fmt.Errorf("empty timezone")
	}
	return time.LoadLocation(name)
}

type humanLabels struct {
	Zero           *string `toml:"zero"`
	BelowKilo      *string `toml:"below_kilo"`
	TenThousand    *string `toml:"ten_thousand"`
	HundredMillion *string `toml:"hundred_million"`
}

func (h *humanLabels) labels() human.Labels {
	l := human.DefaultLabels
	for _, s := range []struct {
		from *string
		to   *string
	}{
		{h.Zero, &l.Zero},
		{h.BelowKilo, &l.BelowKilo},
		{h.TenThousand, &l.TenThousand},
		{h.HundredMillion, &l.HundredMillion},
	} {
		if s.from != nil {
			*s.to = *s.from
		}
	}
	return l
}

func (h *humanLabels) validate() []string {
	var errors []string
	if h.Zero != nil && *h.Zero == "" {
		errors = append(errors, "human.zero can not be empty.")
	}
	if h.BelowKilo != nil && *h.BelowKilo == "" {
		errors = append(errors, "human.below_kilo can not be empty.")
	}
	return errors
}

type iconSizes struct {
	DefaultSize *int    `toml:"default_size"`
	Sizes       []int   `toml:"sizes"`
	Suffix      *string `toml:"suffix"`
}

func (i *iconSizes) rewriter() icon.Rewriter {
	r := icon.DefaultRewriter
	if i.DefaultSize != nil {
		r.DefaultSize = *i.DefaultSize
	}
	if i.Sizes != nil {
		r.Sizes = i.Sizes
	}
	if i.Suffix != nil {
		r.Suffix = *i.Suffix
	}
	return r
}

func (i *iconSizes) validate() []string {
	var errors []string

	// Sizes
	errors = append(errors, hasDuplicates("icon.sizes", i.Sizes)...)
	seen := make(map[int]bool, len(i.Sizes))
	for idx, size := range i.Sizes {
		if size < 1 {
			errors = append(errors, fmt.Sprintf(
				"icon.sizes[%d] must be positive.", idx))
		}
		seen[size] = true
	}

	// DefaultSize
	if i.DefaultSize != nil {
		if *i.DefaultSize < 1 {
			errors = append(errors, "icon.default_size must be positive.")
		} else if i.Sizes != nil && !seen[*i.DefaultSize] {
			errors = append(
				errors,
				"icon.default_size must be one of icon.sizes.")
		}
	}

	// Suffix
	if i.Suffix != nil && *i.Suffix == "" {
		errors = append(errors, "icon.suffix can not be empty.")
	}

	return errors
}
