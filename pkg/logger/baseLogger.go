package logger

import (
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger from level and format names.
// Unknown levels fall back to info.
func Setup(writer io.Writer, level, format string) {
	if writer != nil {
		log.SetOutput(writer)
	}
	if strings.EqualFold(format, "text") {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// NewLogger returns an entry tagged with component. A nil writer keeps the standard logger output.
func NewLogger(writer io.Writer, component string) *log.Entry {
	base := log.StandardLogger()
	if writer != nil {
		base = log.New()
		base.SetOutput(writer)
		base.SetFormatter(log.StandardLogger().Formatter)
		base.SetLevel(log.GetLevel())
	}
	return base.WithField("component", component)
}

// Discard is a logger for tests.
func Discard() *log.Entry {
	l := log.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "test")
}
