package sloghelper

import (
	"log/slog"
	"time"
)

func Duration(key string, value time.Duration) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.DurationValue(value),
	}
}

// Renders the error message. A nil error is rendered as "<nil>".
func Error(key string, value error) slog.Attr {
	if value == nil {
		return slog.String(key, "<nil>")
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(value.Error()),
	}
}

func Float64(key string, value float64) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.Float64Value(value),
	}
}

func Interface(key string, value interface{}) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.AnyValue(value),
	}
}

func Int(key string, value int) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.Int64Value(int64(value)),
	}
}

func Int64(key string, value int64) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.Int64Value(value),
	}
}

func String(key, value string) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(value),
	}
}

func Time(key string, value time.Time) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.TimeValue(value),
	}
}

func Uint64(key string, value uint64) slog.Attr {
	return slog.Attr{
		Key:   key,
		Value: slog.Uint64Value(value),
	}
}
