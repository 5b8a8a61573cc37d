package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ConsoleLogger returns a text logger on stdout.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// ParseLevel falls back to info on unknown names.
func ParseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
