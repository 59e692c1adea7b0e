package log

import (
	"log/slog"
	"time"
)

// Field is a structured log attribute.
type Field = slog.Attr

// Str returns a string field.
func Str(key, value string) Field { return slog.String(key, value) }

// Int returns an int field.
func Int(key string, value int) Field { return slog.Int(key, value) }

// Int64 returns an int64 field.
func Int64(key string, value int64) Field { return slog.Int64(key, value) }

// Bool returns a bool field.
func Bool(key string, value bool) Field { return slog.Bool(key, value) }

// Dur returns a duration field.
func Dur(key string, value time.Duration) Field { return slog.Duration(key, value) }

// Err returns an error field under the conventional "err" key.
func Err(err error) Field { return slog.Any("err", err) }

// Any returns a field with an arbitrary value.
func Any(key string, value any) Field { return slog.Any(key, value) }

// Component tags a derived logger with the owning component's name.
func Component(name string) Field { return slog.String("component", name) }
