package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Holds the raw text of a setting so it can be parsed during validation
// rather than while decoding. The TOML decoder stops at the first bad
// value; deferring lets every problem in the file be reported at once.
//
// Byte values accept suffixes, so 1, "1k" and "1mib" all work.
type value struct {
	set bool
	raw []byte
}

// Accepts the raw text and stores it for later parsing.
func (v *value) UnmarshalText(raw []byte) error {
	v.set = true
	v.raw = make([]byte, len(raw))
	copy(v.raw, raw)
	return nil
}

// Multipliers for the byte suffixes accepted by Bytes.
var byteSuffixes = map[string]int64{
	"":    1,
	"b":   1,
	"k":   1000,
	"kb":  1000,
	"kib": 1 << 10,
	"m":   1000 * 1000,
	"mb":  1000 * 1000,
	"mib": 1 << 20,
	"g":   1000 * 1000 * 1000,
	"gb":  1000 * 1000 * 1000,
	"gib": 1 << 30,
}

// Parses the value as a byte count. Commas are ignored.
func (v *value) Bytes() (int64, error) {
	num := strings.TrimSpace(strings.ReplaceAll(string(v.raw), ",", ""))
	suffix := ""
	for i, r := range num {
		if r < '0' || r > '9' {
			suffix = strings.ToLower(strings.TrimSpace(num[i:]))
			num = num[:i]
			break
		}
	}
	if num == "" && strings.HasPrefix(suffix, "-") {
		return 0, errors.New("byte values can not be negative.")
	}
	val, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numerical value (%s)", num)
	}
	mult, ok := byteSuffixes[suffix]
	if !ok {
		return 0, fmt.Errorf("unknown byte suffix (%s)", suffix)
	}
	return val * mult, nil
}

// Parses the value as an integer.
func (v *value) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(v.raw)))
}

func (v *value) String() string {
	return string(v.raw)
}
