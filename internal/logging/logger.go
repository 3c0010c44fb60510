// Package logging configures the logrus logger shared by every binary.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config holds logger configuration.
type Config struct {
	Level       string
	ServiceName string
	JSON        bool
	Output      io.Writer
}

// New creates a logger tagged with the service name. Unknown levels fall
// back to info.
func New(cfg Config) *logrus.Entry {
	logger := logrus.New()
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Output != nil {
		logger.SetOutput(cfg.Output)
	} else {
		logger.SetOutput(os.Stdout)
	}
	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger.WithField("service", cfg.ServiceName)
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
