package slogx

import (
	"log/slog"

	"github.com/casualjim/architext/pkg/uuidx"
	"github.com/google/uuid"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Provider groups the identifying attributes of a context provider under the
// "provider" key. An empty name is logged as "<unnamed>".
func Provider(name string, id uuid.UUID) slog.Attr {
	if name == "" {
		name = "<unnamed>"
	}
	return slog.Group("provider",
		slog.String("name", name),
		slog.String("id", uuidx.Short(id)),
	)
}

// Count returns an int attribute, used for sizes of refresh batches and render output.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

const (
	// KeyLoggerName is the key for the logger name attribute.
	KeyLoggerName = "logger"
)

// LoggerName creates a slog.Attr with the provided logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}
