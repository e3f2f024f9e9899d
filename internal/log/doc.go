// Package log builds slog loggers that never print cookie values.
//
// SecureHandler wraps any slog.Handler and replaces sensitive attribute
// values with MaskValue. A value is sensitive when its key names cookie
// material ("value", "cookie", "set-cookie"), a credential or session id, or
// when the value itself looks like a token (JWT, bearer, long opaque id).
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("cookie read", "name", c.Name, "value", c.Value) // value is masked
//
// Loggers are created once in the command layer and passed down explicitly;
// library packages fall back to Discard when none is given.
package log
