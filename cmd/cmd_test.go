// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Thermoquad/ocellus/internal/config"
	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

// ============================================================================
// Argument Parsing
// ============================================================================

func TestParseUintArg(t *testing.T) {
	tests := []struct {
		input    string
		bits     int
		expected uint64
		wantErr  bool
	}{
		{"0", 8, 0, false},
		{"255", 8, 255, false},
		{"0xff", 8, 255, false},
		{"256", 8, 0, true},
		{"-1", 8, 0, true},
		{"1000", 16, 1000, false},
		{"abc", 16, 0, true},
	}

	for _, tt := range tests {
		got, err := parseUintArg("value", tt.input, tt.bits)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseUintArg(%q, %d) error = %v, wantErr %v", tt.input, tt.bits, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("parseUintArg(%q, %d) = %d, want %d", tt.input, tt.bits, got, tt.expected)
		}
	}
}

func TestParseIntArg(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"0", 0, false},
		{"90", 90, false},
		{"-90", -90, false},
		{"32768", 0, true},
		{"x", 0, true},
	}

	for _, tt := range tests {
		got, err := parseIntArg("angle", tt.input, 16)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIntArg(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("parseIntArg(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestParseDurationFlag(t *testing.T) {
	d, err := parseDurationFlag("read-timeout", "250ms")
	if err != nil || d != 250*time.Millisecond {
		t.Errorf("parseDurationFlag(250ms) = %v, %v", d, err)
	}
	for _, bad := range []string{"", "fast", "-1s"} {
		if _, err := parseDurationFlag("read-timeout", bad); err == nil {
			t.Errorf("parseDurationFlag(%q) should fail", bad)
		}
	}
}

// ============================================================================
// Link Selection
// ============================================================================

func TestNewLink(t *testing.T) {
	base := config.Default().Link

	tests := []struct {
		name   string
		modify func(*config.Link)
		prefix string
	}{
		{"uart", func(l *config.Link) { l.Port = "/dev/ttyUSB0" }, "Serial: /dev/ttyUSB0 @ 19200 baud"},
		{"i2c", func(l *config.Link) { l.Kind = config.KindI2C }, "I2C: "},
		{"spi", func(l *config.Link) { l.Kind = config.KindSPI }, "SPI: /dev/spidev0.0"},
		{"spi-ss", func(l *config.Link) { l.Kind = config.KindSPISelect }, "SPI: /dev/spidev0.0"},
		{"tcp", func(l *config.Link) { l.Kind = config.KindTCP; l.Addr = "bridge:4000" }, "TCP: bridge:4000"},
		{"ws", func(l *config.Link) { l.Kind = config.KindWebSocket; l.URL = "ws://host/tunnel" }, "WebSocket: ws://host/tunnel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)

			l, info, err := NewLink(cfg)
			if err != nil {
				t.Fatalf("NewLink failed: %v", err)
			}
			if l == nil {
				t.Fatal("NewLink returned nil link")
			}
			if !strings.HasPrefix(info, tt.prefix) {
				t.Errorf("info = %q, want prefix %q", info, tt.prefix)
			}
		})
	}
}

func TestNewLinkUnknownKind(t *testing.T) {
	cfg := config.Default().Link
	cfg.Kind = "can"
	if _, _, err := NewLink(cfg); err == nil {
		t.Error("expected error for unknown link kind")
	}
}

// ============================================================================
// Profile Resolution
// ============================================================================

// newProfileCommand returns a command carrying fresh copies of the root's
// persistent flags, so Changed state does not leak between tests
func newProfileCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	configPath = ""
	logLevel = ""
	outputFmt = "text"

	cmd := &cobra.Command{Use: "test"}
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		cmd.Flags().AddFlag(&pflag.Flag{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Usage:     f.Usage,
			Value:     f.Value,
			DefValue:  f.DefValue,
		})
	})
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return cmd
}

func TestLoadProfileDefaults(t *testing.T) {
	cmd := newProfileCommand(t)
	if err := loadProfile(cmd, nil); err != nil {
		t.Fatalf("loadProfile failed: %v", err)
	}
	if profile.Link.Kind != config.KindUART {
		t.Errorf("Kind = %q, want uart", profile.Link.Kind)
	}
	if profile.Protocol.HandshakeTimeout != ocellus.DefaultHandshakeTimeout {
		t.Errorf("HandshakeTimeout = %v", profile.Protocol.HandshakeTimeout)
	}
}

func TestLoadProfileImpliedKinds(t *testing.T) {
	tests := []struct {
		args []string
		kind string
	}{
		{[]string{"--port", "/dev/ttyUSB1"}, config.KindUART},
		{[]string{"--url", "ws://host/x"}, config.KindWebSocket},
		{[]string{"--addr", "host:4000"}, config.KindTCP},
		{[]string{"--addr", "host:4000", "--link", "i2c"}, config.KindI2C},
		{[]string{"--link", "spi-ss"}, config.KindSPISelect},
	}

	for _, tt := range tests {
		cmd := newProfileCommand(t, tt.args...)
		if err := loadProfile(cmd, nil); err != nil {
			t.Errorf("%v: loadProfile failed: %v", tt.args, err)
			continue
		}
		if profile.Link.Kind != tt.kind {
			t.Errorf("%v: Kind = %q, want %q", tt.args, profile.Link.Kind, tt.kind)
		}
	}
}

func TestLoadProfileFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocellus.toml")
	data := `
[link]
kind = "tcp"
addr = "bridge:4000"
read_timeout = "50ms"

[protocol]
handshake_timeout = "2s"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newProfileCommand(t, "--read-timeout", "300ms")
	configPath = path
	if err := loadProfile(cmd, nil); err != nil {
		t.Fatalf("loadProfile failed: %v", err)
	}

	if profile.Link.Kind != config.KindTCP || profile.Link.Addr != "bridge:4000" {
		t.Errorf("link = %+v", profile.Link)
	}
	if profile.Link.ReadTimeout != 300*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 300ms from the flag", profile.Link.ReadTimeout)
	}
	if profile.Protocol.HandshakeTimeout != 2*time.Second {
		t.Errorf("HandshakeTimeout = %v, want 2s from the file", profile.Protocol.HandshakeTimeout)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown link", []string{"--link", "can"}},
		{"bad read timeout", []string{"--read-timeout", "soon"}},
		{"bad output", []string{"-o", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newProfileCommand(t, tt.args...)
			if err := loadProfile(cmd, nil); err == nil {
				t.Errorf("loadProfile(%v) should fail", tt.args)
			}
		})
	}
	outputFmt = "text"
}

// ============================================================================
// Watch Rendering
// ============================================================================

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{61 * time.Second, "1 minute and 1 second"},
		{2*time.Hour + 3*time.Minute, "2 hours and 3 minutes"},
		{26*time.Hour + time.Minute + 5*time.Second, "1 day, 2 hours, 1 minute, and 5 seconds"},
	}

	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.expected {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.expected)
		}
	}
}

func TestBlockRows(t *testing.T) {
	rows := blockRows([]ocellus.Block{
		{Signature: 1, X: 10, Y: 20, Width: 5, Height: 6, Index: 3, Age: 7},
		{Signature: 012, X: 1, Y: 2, Width: 3, Height: 4, Angle: -45, Index: 4, Age: 255},
	})

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if len(rows[0]) != len(blockColumns) {
		t.Errorf("row has %d cells, want %d", len(rows[0]), len(blockColumns))
	}
	if rows[0][1] != "1" || rows[0][6] != "-" {
		t.Errorf("plain block row = %v", rows[0])
	}
	if rows[1][1] != "12 (CC)" || rows[1][6] != "-45" {
		t.Errorf("color code row = %v", rows[1])
	}
}

func TestFeatureRows(t *testing.T) {
	if rows := featureRows(nil); rows != nil {
		t.Errorf("featureRows(nil) = %v", rows)
	}

	rows := featureRows(&ocellus.Features{
		Mask:    ocellus.FeatureAll,
		Vectors: []ocellus.Vector{{X0: 1, Y0: 2, X1: 3, Y1: 4, Index: 5, Flags: ocellus.LineFlagIntersectionPresent}},
		Intersections: []ocellus.Intersection{{X: 7, Y: 8, Lines: []ocellus.IntersectionLine{
			{Index: 1, Angle: 0},
			{Index: 2, Angle: 90},
		}}},
		Barcodes: []ocellus.Barcode{{X: 9, Y: 10, Code: 3}},
	})

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "vector" || rows[0][1] != "(1 2)-(3 4)" || rows[0][3] != "intersection ahead" {
		t.Errorf("vector row = %v", rows[0])
	}
	if rows[1][0] != "intersection" || rows[1][3] != "1@0° 2@90°" {
		t.Errorf("intersection row = %v", rows[1])
	}
	if rows[2][0] != "barcode" || rows[2][3] != "code 3" {
		t.Errorf("barcode row = %v", rows[2])
	}
}
