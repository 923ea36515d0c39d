package logger

import (
	log "github.com/sirupsen/logrus"
)

// Logger is the subset of logrus the services depend on. *logrus.Entry satisfies it.
type Logger interface {
	WithField(key string, value interface{}) *log.Entry
	WithFields(fields log.Fields) *log.Entry
	WithError(err error) *log.Entry
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}
