package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger. format is "text" or "json".
func Setup(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(lvl)
	return nil
}
