// Package logger configures the process-wide logrus logger and carries
// component loggers through contexts.
package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBase(os.Stderr, logrus.InfoLevel)

func newBase(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l
}

// Setup replaces the base logger. Unknown levels fall back to info.
func Setup(out io.Writer, level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base = newBase(out, lvl)
}

// Base returns the process-wide logger.
func Base() *logrus.Logger {
	return base
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(name string) *logrus.Entry {
	return base.WithField("component", name)
}

type ctxKey struct{}

// NewContext returns a context carrying entry.
func NewContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext returns the entry stored in ctx, or a base entry.
func FromContext(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(base)
}
