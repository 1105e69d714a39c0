// Package logger provides structured logging for the monitor, built on
// zerolog. A Logger is normally injected at construction; the package-level
// functions exist for code paths that run before wiring is complete.
//
// Use the *WithFields variants for one-off structured events and the
// With* builders when several log lines share context:
//
//	log := logger.GetLogger().WithField("author", author)
//	log.Info("polling feed")
package logger
