// Package sysutil holds process-level helpers shared by the coachsim
// commands.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogOptions controls the global logger.
type LogOptions struct {
	Level   string // debug, info, warn (or warning), error, fatal, panic
	Pretty  bool   // human-readable console output instead of JSON
	Version string // stamped on every line when set
}

// ParseLevel maps a level name to zerolog. Unknown or blank names mean info.
func ParseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || lvl == zerolog.NoLevel || lvl == zerolog.Disabled || lvl == zerolog.TraceLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetupLogger replaces the global logger with one writing to w (stderr when
// nil). Console output honors NO_COLOR.
func SetupLogger(w io.Writer, opt LogOptions) {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	if opt.Pretty {
		_, noColor := os.LookupEnv("NO_COLOR")
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: noColor}
	}
	lc := zerolog.New(w).With().Timestamp().Str("service", "coachsim")
	if opt.Version != "" {
		lc = lc.Str("version", opt.Version)
	}
	log.Logger = lc.Logger()
	zerolog.SetGlobalLevel(ParseLevel(opt.Level))
}

// FirstNonEmpty returns the first value that is not blank, unmodified.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
