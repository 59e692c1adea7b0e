// Package log provides structured logging for silt components.
//
// # Overview
//
// The package is a thin facade over log/slog: New builds a *Logger with
// either a tinted console handler (TTY-aware) or a JSON handler, and the
// Field constructors keep call sites uniform across the repo:
//
//	logger := log.New(log.Options{Level: "debug"})
//	logger.With(log.Component("store")).Info("store.open",
//		log.Int("workers", 4), log.Dur("grouping", 100*time.Millisecond))
//
// Component loggers are plain derived loggers; pass them down explicitly.
// Nop returns a logger that discards everything (the default for library
// code when the embedder supplies none).
//
// RedirectStdLog routes the standard library's global logger through a
// *Logger so Pebble's internal logging lands in the same stream.
package log
