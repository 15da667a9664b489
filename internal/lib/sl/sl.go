package sl

import "log/slog"

// Err returns a slog attribute for an error value.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Module returns a slog attribute naming the component that logs.
func Module(name string) slog.Attr {
	return slog.Attr{
		Key:   "module",
		Value: slog.StringValue(name),
	}
}

// Secret returns a slog attribute with the value masked except for the
// last four characters, so keys can be correlated without leaking them.
func Secret(key, value string) slog.Attr {
	masked := "****"
	if len(value) > 4 {
		masked = "****" + value[len(value)-4:]
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(masked),
	}
}
