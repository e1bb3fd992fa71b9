package logger

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Route sends every level to w. Commands print settings and payloads on
// stdout, so logs must stay off it.
func Route(l *logrus.Logger, w io.Writer) {
	l.SetOutput(w)
}

// SetupLogger configures the standard logger. It is called once at startup;
// SetLevel adjusts the verbosity after the config is known.
func SetupLogger() {
	logrus.SetLevel(logrus.WarnLevel)
	Route(logrus.StandardLogger(), os.Stderr)
}

func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	logrus.SetLevel(lvl)
	return nil
}
