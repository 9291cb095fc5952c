// Package logging configures the process-wide slog logger used by sfctl and sfd.
//
// Records are JSON on stderr and always carry the binary name and build
// version:
//
//	{"time":"...","level":"INFO","msg":"starting","module":"sfd","version":"v0.3.0"}
//
// At debug level the handler also adds the source location.
//
// # Levels
//
// ParseLogLevel accepts debug, info, warn (or warning) and error in any case.
// Anything else, including the empty string, is info.
//
// # Setup
//
// sfd reads the level from the environment variable named by EnvVarLogLevel
// (LOG_LEVEL):
//
//	logging.SetDefaultStructuredLogger("sfd", version)
//
// sfctl takes the level from its --log-level flag, which itself falls back
// to LOG_LEVEL, and passes it explicitly:
//
//	logging.SetDefaultStructuredLoggerWithLevel("sfctl", version, cmd.String("log-level"))
//
// NewStructuredLogger builds the same logger without installing it.
//
// # Standard library loggers
//
// NewLogLogger adapts the default handler to a *log.Logger for APIs that
// still take one. The HTTP server uses it so that connection and TLS errors
// from net/http arrive as warn-level JSON records:
//
//	srv := &http.Server{ErrorLog: logging.NewLogLogger(slog.LevelWarn, false)}
package logging
