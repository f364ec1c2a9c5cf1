// Package logging configures zerolog for the CLI.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Init returns the root logger. The level comes from ART_LOG_LEVEL
// (debug, warn, error; anything else means info).
func Init() zerolog.Logger {
	level := zerolog.InfoLevel
	switch os.Getenv("ART_LOG_LEVEL") {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
