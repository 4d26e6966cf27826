package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global logger. A non-zero verbosity (-v count)
// overrides the configured level name.
func SetupLogger(level string, verbosity int) {
	SetupLoggerTo(os.Stderr, level, verbosity)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(out io.Writer, level string, verbosity int) {
	zerolog.SetGlobalLevel(resolveLevel(level, verbosity))

	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
		NoColor:    true,
	}
	log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()

	// Add caller information for debug and trace levels
	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Str("level", zerolog.GlobalLevel().String()).Msg("Logger initialized")
}

func resolveLevel(level string, verbosity int) zerolog.Level {
	switch {
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	case verbosity > 2:
		return zerolog.TraceLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.WarnLevel
	}
	return lvl
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// LogOperationStart logs the start of an operation and returns a function to log its completion
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().
		Str("operation", operation).
		Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
