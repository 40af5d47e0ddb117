// Package meridian defines the logger for the whole module.
//
// The log level can be tuned with the MERIDIAN_LOG environment variable using
// one of the zerolog level strings. It defaults to debug.
package meridian

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "MERIDIAN_LOG"

const defaultLevel = zerolog.DebugLevel

func init() {
	switch os.Getenv(EnvLogLevel) {
	case "warn":
		Logger = Logger.Level(zerolog.WarnLevel)
	case "info":
		Logger = Logger.Level(zerolog.InfoLevel)
	case "error":
		Logger = Logger.Level(zerolog.ErrorLevel)
	case "none":
		Logger = Logger.Level(zerolog.Disabled)
	}
}

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(defaultLevel)
