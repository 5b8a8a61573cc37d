package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("loud"))
}

func TestConsoleLogger(t *testing.T) {
	l := ConsoleLogger(logrus.ErrorLevel)
	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
	assert.False(t, l.IsLevelEnabled(logrus.InfoLevel))
}
