package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production writes uncoloured console lines at
// info level, every other environment logs at debug.
func New(environment string) zerolog.Logger {
	return NewWithWriter(environment, os.Stdout)
}

func NewWithWriter(environment string, out io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    environment == "production",
	}

	level := zerolog.DebugLevel
	if environment == "production" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(output).Level(level).With().
		Timestamp().
		Str("env", environment).
		Logger()
}

// WithLevel overrides the logger level when name parses, otherwise it returns
// the logger unchanged.
func WithLevel(logger zerolog.Logger, name string) zerolog.Logger {
	if name == "" {
		return logger
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		logger.Warn().Str("level", name).Msg("unknown log level, keeping default")
		return logger
	}
	return logger.Level(lvl)
}
