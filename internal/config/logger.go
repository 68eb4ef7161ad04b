package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the shared structured logger. Output is JSON so log
// shippers can ingest it directly; the level comes from LOG_LEVEL and
// defaults to info.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
