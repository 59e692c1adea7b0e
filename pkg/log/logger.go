package log

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger is the logger type used across silt.
type Logger = slog.Logger

// Log levels accepted by Options.Level and ParseLevel.
const (
	DebugLevel = slog.LevelDebug
	InfoLevel  = slog.LevelInfo
	WarnLevel  = slog.LevelWarn
	ErrorLevel = slog.LevelError
)

// Options configures New.
type Options struct {
	// Level is the minimum level: debug|info|warn|error. Empty means info.
	Level string

	// Format selects the handler: text (tinted console) or json.
	// Empty means text.
	Format string

	// Output receives log lines. Nil means os.Stderr. Color is enabled only
	// when Output is a terminal.
	Output io.Writer
}

// New builds a Logger from opts. Unknown level or format strings fall back
// to their defaults rather than failing; use ParseLevel to validate first.
func New(opts Options) *Logger {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		level = InfoLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	}

	noColor := true
	if f, ok := out.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		out = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(out, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}

// Nop returns a logger that discards every record.
func Nop() *Logger { return slog.New(nopHandler{}) }

// ParseLevel maps a level name to its slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// RedirectStdLog routes the standard library's global logger through l at
// info level (Pebble logs through it by default). The returned func restores
// the previous destination.
func RedirectStdLog(l *Logger) func() {
	prevFlags := stdlog.Flags()
	prevPrefix := stdlog.Prefix()
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(stdWriter{l})
	return func() {
		stdlog.SetOutput(os.Stderr)
		stdlog.SetFlags(prevFlags)
		stdlog.SetPrefix(prevPrefix)
	}
}

type stdWriter struct{ l *Logger }

func (w stdWriter) Write(p []byte) (int, error) {
	w.l.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
