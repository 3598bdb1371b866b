package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

var log = slog.New(slog.NewJSONHandler(os.Stdout, nil))

func Init() {
	log = slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func NewJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

func New(h slog.Handler) *slog.Logger {
	return slog.New(h)
}

func Info(msg string, args ...interface{}) {
	log.Info(msg, args...)
}

func Infof(format string, v ...interface{}) {
	log.Info(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...interface{}) {
	log.Error(msg, args...)
}

func Errorf(format string, v ...interface{}) {
	log.Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...interface{}) {
	log.Debug(msg, args...)
}

func Debugf(format string, v ...interface{}) {
	log.Debug(fmt.Sprintf(format, v...))
}

func Fatal(msg string, args ...interface{}) {
	log.Error(msg, args...)
	os.Exit(1)
}

func Fatalf(format string, v ...interface{}) {
	log.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}

func WithError(err error) *slog.Logger {
	return log.With("error", err)
}

func WithFields(fields map[string]interface{}) *slog.Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return log.With(args...)
}
