// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ocellus.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	path := writeProfile(t, `
[link]
kind = "i2c"
bus = 3
address = 0x55

[protocol]
busy_delay = "2ms"
handshake_timeout = "10s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Link.Kind != KindI2C {
		t.Fatalf("unexpected kind: %q", cfg.Link.Kind)
	}
	if cfg.Link.Bus != 3 || cfg.Link.Address != 0x55 {
		t.Fatalf("unexpected i2c settings: bus=%d addr=0x%x", cfg.Link.Bus, cfg.Link.Address)
	}
	if cfg.Protocol.BusyDelay != 2*time.Millisecond {
		t.Fatalf("unexpected busy delay: %v", cfg.Protocol.BusyDelay)
	}
	if cfg.Protocol.HandshakeTimeout != 10*time.Second {
		t.Fatalf("unexpected handshake timeout: %v", cfg.Protocol.HandshakeTimeout)
	}

	// Undefined keys keep their defaults
	def := Default()
	if cfg.Link.Baud != def.Link.Baud {
		t.Fatalf("baud changed: %d", cfg.Link.Baud)
	}
	if cfg.Protocol.ProgramDelay != ocellus.DefaultProgramDelay {
		t.Fatalf("program delay changed: %v", cfg.Protocol.ProgramDelay)
	}
	if cfg.Protocol.SyncDelay != ocellus.DefaultSyncDelay {
		t.Fatalf("sync delay changed: %v", cfg.Protocol.SyncDelay)
	}
}

func TestLoad_ZeroValuesAreApplied(t *testing.T) {
	path := writeProfile(t, `
[link]
kind = "uart"
port = "/dev/ttyUSB1"
read_timeout = "250ms"

[protocol]
busy_delay = "0s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Protocol.BusyDelay != 0 {
		t.Fatalf("explicit zero busy delay not applied: %v", cfg.Protocol.BusyDelay)
	}
	if cfg.Link.Port != "/dev/ttyUSB1" || cfg.Link.ReadTimeout != 250*time.Millisecond {
		t.Fatalf("unexpected uart settings: %+v", cfg.Link)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad duration", "[protocol]\nbusy_delay = \"soon\"\n", "parse protocol.busy_delay"},
		{"negative duration", "[protocol]\nsync_delay = \"-1ms\"\n", "negative duration"},
		{"unknown kind", "[link]\nkind = \"can\"\n", "unknown link kind"},
		{"ws without url", "[link]\nkind = \"ws\"\n", "requires a url"},
		{"tcp without addr", "[link]\nkind = \"tcp\"\n", "requires an addr"},
		{"bad address", "[link]\nkind = \"i2c\"\naddress = 0x90\n", "7-bit"},
		{"bad toml", "[link\n", "load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeProfile(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.SessionOptions()) != 5 {
		t.Fatalf("unexpected option count: %d", len(cfg.SessionOptions()))
	}
	if cfg.Protocol.HandshakeTimeout != 5*time.Second {
		t.Fatalf("unexpected handshake timeout: %v", cfg.Protocol.HandshakeTimeout)
	}
}
