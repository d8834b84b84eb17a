// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.WarnLevel},
		{"debug", zerolog.DebugLevel},
		{" INFO ", zerolog.InfoLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.WarnLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Setenv(envNoColor, "1")

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "ocellus", "info")

	logger.Debug().Msg("hidden")
	logger.Info().Str("link", "uart").Msg("connected")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at info level: %q", out)
	}
	if !strings.Contains(out, "connected") || !strings.Contains(out, "app=ocellus") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestNewWithWriter_EnvLevel(t *testing.T) {
	t.Setenv(envLevel, "debug")
	t.Setenv(envNoColor, "1")

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "ocellus", "")
	logger.Debug().Msg("retrying")

	if !strings.Contains(buf.String(), "retrying") {
		t.Errorf("expected debug output, got %q", buf.String())
	}
}
