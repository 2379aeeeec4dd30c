// Package log configures engine loggers.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is the logging interface used across the engine.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("PHONOGRAPH_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
