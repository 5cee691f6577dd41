package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/liquidgecka/stampfmt/config"
	"github.com/liquidgecka/stampfmt/human"
	"github.com/liquidgecka/stampfmt/icon"
	"github.com/liquidgecka/stampfmt/stamp"
)

const (
	modeDate   = "date"
	modeSize   = "size"
	modeNumber = "number"
	modeMoney  = "money"
	modeCents  = "cents"
	modeIcon   = "icon"
)

// Formats command line values, one result per line.
type printer struct {
	formatter *stamp.Formatter
	resolver  *stamp.Resolver
	labels    human.Labels
	icons     icon.Rewriter
}

// Builds a printer from the configuration with the pattern and timezone
// overridden if given.
func newPrinter(cnf *config.Config, pattern, zone string) (*printer, error) {
	p := &printer{
		formatter: cnf.Formatter(),
		resolver:  cnf.Resolver(),
		labels:    cnf.Labels(),
		icons:     cnf.Icons(),
	}
	if pattern != "" {
		p.formatter = stamp.Compile(pattern)
	}
	if zone != "" {
		loc, err := config.LoadLocation(zone)
		if err != nil {
			return nil, errors.Wrap(err, "invalid timezone")
		}
		p.resolver = &stamp.Resolver{Location: loc}
	}
	return p, nil
}

func (p *printer) print(out io.Writer, mode string, values []string) error {
	if mode == modeDate && len(values) == 0 {
		fmt.Fprintln(out, p.formatter.FormatNow(p.resolver))
		return nil
	} else if len(values) == 0 {
		return fmt.Errorf("mode %s requires at least one value", mode)
	}
	for _, v := range values {
		s, err := p.format(mode, v)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
	}
	return nil
}

func (p *printer) format(mode, v string) (string, error) {
	switch mode {
	case modeDate:
		ts, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return "", errors.Wrapf(err, "invalid timestamp %q", v)
		}
		return p.formatter.FormatEpoch(p.resolver, ts), nil
	case modeSize, modeNumber:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return "", errors.Wrapf(err, "invalid %s %q", mode, v)
		}
		if mode == modeSize {
			return p.labels.Size(n), nil
		}
		return p.labels.Number(n), nil
	case modeMoney, modeCents:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return "", errors.Wrapf(err, "invalid amount %q", v)
		}
		return human.Money(f, mode == modeCents), nil
	case modeIcon:
		url, size := icon.ParseSpec(v)
		return p.icons.Rewrite(url, size), nil
	default:
		return "", fmt.Errorf("unknown mode: %s", mode)
	}
}
