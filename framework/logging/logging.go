// Package logging builds the application logger from configuration.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/km-arc/go-ioc/framework/config"
)

// New returns a logger writing to stderr with the configured level and
// format. An unknown level falls back to info, an unknown format to text.
func New(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
