// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	envLevel   = "OCELLUS_LOG_LEVEL"
	envNoColor = "OCELLUS_LOG_NOCOLOR"

	defaultLevel = zerolog.WarnLevel
)

// New builds the console logger used by the CLI. Logs go to stderr so command
// output on stdout stays clean. level overrides OCELLUS_LOG_LEVEL when set.
func New(app, level string) zerolog.Logger {
	return NewWithWriter(os.Stderr, app, level)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(w io.Writer, app, level string) zerolog.Logger {
	if level == "" {
		level = os.Getenv(envLevel)
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    os.Getenv(envNoColor) != "",
	}
	logger := zerolog.New(output).
		Level(ParseLevel(level)).
		With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level, defaulting to warn
func ParseLevel(s string) zerolog.Level {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return defaultLevel
	}
	return lvl
}
