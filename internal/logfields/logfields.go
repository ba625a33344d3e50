package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyURL        = "url"
	KeyBytes      = "bytes"
	KeyCount      = "count"
	KeyMode       = "mode"
	KeyStatus     = "status"
	KeyAttempt    = "attempt"
	KeyBuildID    = "build_id"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Bytes(n int64) slog.Attr         { return slog.Int64(KeyBytes, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
