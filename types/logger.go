package types

import (
	"io"

	"github.com/sirupsen/logrus"
)

// DiscardLogger is what components log to when they are given a nil logger.
func DiscardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
