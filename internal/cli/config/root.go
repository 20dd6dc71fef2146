package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// RootConfig carries the persistent flags shared by every subcommand.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	LogJSON    bool
	NoColor    bool

	Out io.Writer // command output; defaults to stdout
	log *zerolog.Logger
}

// SetupLogging builds the logger from LogLevel, LogJSON and NoColor.
// Logs go to stderr so command output can be piped.
func (rc *RootConfig) SetupLogging(w io.Writer) error {
	lvl, err := zerolog.ParseLevel(rc.LogLevel)
	if err != nil {
		return fmt.Errorf("bad --log-level %q: %w", rc.LogLevel, err)
	}
	if w == nil {
		w = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if !rc.LogJSON {
		w = zerolog.ConsoleWriter{Out: w, NoColor: rc.NoColor, TimeFormat: time.Kitchen}
	}
	l := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	rc.log = &l
	return nil
}

// Logger returns the configured logger, or a no-op one before setup.
func (rc *RootConfig) Logger() zerolog.Logger {
	if rc.log == nil {
		return zerolog.Nop()
	}
	return *rc.log
}

// Stdout is where commands print results.
func (rc *RootConfig) Stdout() io.Writer {
	if rc.Out == nil {
		return os.Stdout
	}
	return rc.Out
}
