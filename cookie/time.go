package cookie

import (
	"bytes"
	"strconv"
	"time"

	"github.com/liquidgecka/stampfmt/stamp"
)

var epochSeconds = stamp.Compile("U")

// Acts like a time.Time object, but encodes to and from a unix epoch in
// whole seconds to save space. Decoding accepts either seconds or
// milliseconds. The zero time encodes as 0.
type Time struct {
	time.Time
}

func (t Time) MarshalText() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("0"), nil
	}
	return []byte(epochSeconds.Format(stamp.FromTime(t.Time))), nil
}

func (t *Time) UnmarshalText(raw []byte) error {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return err
	}
	if f == 0 {
		t.Time = time.Time{}
		return nil
	}
	in := stamp.Epoch(f)
	if !in.Valid() {
		return ErrInvalid
	}
	t.Time = in.Time()
	return nil
}

// The embedded time.Time would otherwise encode as RFC 3339.
func (t Time) MarshalJSON() ([]byte, error) {
	return t.MarshalText()
}

// Accepts the epoch either as a JSON number or a string.
func (t *Time) UnmarshalJSON(raw []byte) error {
	return t.UnmarshalText(bytes.Trim(raw, `"`))
}
