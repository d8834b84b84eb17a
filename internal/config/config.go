// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads connection profiles for the ocellus CLI.
//
// A profile is a TOML file with a [link] table describing the transport and a
// [protocol] table with timing overrides. Keys that are absent keep their
// defaults; command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Thermoquad/ocellus/pkg/link"
	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

// Link kinds
const (
	KindUART      = "uart"
	KindI2C       = "i2c"
	KindSPI       = "spi"
	KindSPISelect = "spi-ss"
	KindWebSocket = "ws"
	KindTCP       = "tcp"
)

// Config is a resolved connection profile
type Config struct {
	Link     Link
	Protocol Protocol
}

// Link selects and parameterizes the transport
type Link struct {
	Kind        string
	Port        string
	Baud        int
	ReadTimeout time.Duration
	Bus         int
	Address     uint16
	Device      string
	SpeedHz     uint32
	URL         string
	Username    string
	NoSSLVerify bool
	Addr        string
}

// Protocol holds the session timing tunables
type Protocol struct {
	BusyDelay        time.Duration
	ProgramDelay     time.Duration
	SyncDelay        time.Duration
	HandshakeTimeout time.Duration
	HandshakeDelay   time.Duration
}

type fileConfig struct {
	Link     fileLink     `toml:"link"`
	Protocol fileProtocol `toml:"protocol"`
}

type fileLink struct {
	Kind        string `toml:"kind"`
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	ReadTimeout string `toml:"read_timeout"`
	Bus         int    `toml:"bus"`
	Address     int    `toml:"address"`
	Device      string `toml:"device"`
	SpeedHz     int64  `toml:"speed_hz"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
	Addr        string `toml:"addr"`
}

type fileProtocol struct {
	BusyDelay        string `toml:"busy_delay"`
	ProgramDelay     string `toml:"program_delay"`
	SyncDelay        string `toml:"sync_delay"`
	HandshakeTimeout string `toml:"handshake_timeout"`
	HandshakeDelay   string `toml:"handshake_delay"`
}

// Default returns the built-in profile: a UART link on /dev/ttyACM0
func Default() Config {
	return Config{
		Link: Link{
			Kind:        KindUART,
			Port:        "/dev/ttyACM0",
			Baud:        link.DefaultBaudRate,
			ReadTimeout: link.DefaultReadTimeout,
			Bus:         1,
			Address:     link.DefaultI2CAddress,
			Device:      "/dev/spidev0.0",
			SpeedHz:     link.DefaultSPISpeed,
		},
		Protocol: Protocol{
			BusyDelay:        ocellus.DefaultBusyDelay,
			ProgramDelay:     ocellus.DefaultProgramDelay,
			SyncDelay:        ocellus.DefaultSyncDelay,
			HandshakeTimeout: ocellus.DefaultHandshakeTimeout,
			HandshakeDelay:   ocellus.DefaultHandshakeDelay,
		},
	}
}

// Load reads a profile and applies the keys it defines over Default
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("link", "kind") {
		cfg.Link.Kind = strings.ToLower(strings.TrimSpace(raw.Link.Kind))
	}
	if meta.IsDefined("link", "port") {
		cfg.Link.Port = strings.TrimSpace(raw.Link.Port)
	}
	if meta.IsDefined("link", "baud") {
		cfg.Link.Baud = raw.Link.Baud
	}
	if meta.IsDefined("link", "read_timeout") {
		d, err := parseDuration("link.read_timeout", raw.Link.ReadTimeout)
		if err != nil {
			return Config{}, err
		}
		cfg.Link.ReadTimeout = d
	}
	if meta.IsDefined("link", "bus") {
		cfg.Link.Bus = raw.Link.Bus
	}
	if meta.IsDefined("link", "address") {
		if raw.Link.Address < 0x03 || raw.Link.Address > 0x77 {
			return Config{}, fmt.Errorf("parse link.address: 0x%x is not a 7-bit I2C address", raw.Link.Address)
		}
		cfg.Link.Address = uint16(raw.Link.Address)
	}
	if meta.IsDefined("link", "device") {
		cfg.Link.Device = strings.TrimSpace(raw.Link.Device)
	}
	if meta.IsDefined("link", "speed_hz") {
		if raw.Link.SpeedHz <= 0 || raw.Link.SpeedHz > 1<<31 {
			return Config{}, fmt.Errorf("parse link.speed_hz: %d out of range", raw.Link.SpeedHz)
		}
		cfg.Link.SpeedHz = uint32(raw.Link.SpeedHz)
	}
	if meta.IsDefined("link", "url") {
		cfg.Link.URL = strings.TrimSpace(raw.Link.URL)
	}
	if meta.IsDefined("link", "username") {
		cfg.Link.Username = strings.TrimSpace(raw.Link.Username)
	}
	if meta.IsDefined("link", "no_ssl_verify") {
		cfg.Link.NoSSLVerify = raw.Link.NoSSLVerify
	}
	if meta.IsDefined("link", "addr") {
		cfg.Link.Addr = strings.TrimSpace(raw.Link.Addr)
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"busy_delay", raw.Protocol.BusyDelay, &cfg.Protocol.BusyDelay},
		{"program_delay", raw.Protocol.ProgramDelay, &cfg.Protocol.ProgramDelay},
		{"sync_delay", raw.Protocol.SyncDelay, &cfg.Protocol.SyncDelay},
		{"handshake_timeout", raw.Protocol.HandshakeTimeout, &cfg.Protocol.HandshakeTimeout},
		{"handshake_delay", raw.Protocol.HandshakeDelay, &cfg.Protocol.HandshakeDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined("protocol", d.key) {
			continue
		}
		v, err := parseDuration("protocol."+d.key, d.raw)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the link kind and the fields it requires
func (c Config) Validate() error {
	switch c.Link.Kind {
	case KindUART:
		if c.Link.Port == "" {
			return fmt.Errorf("link kind %q requires a port", c.Link.Kind)
		}
	case KindI2C:
	case KindSPI, KindSPISelect:
		if c.Link.Device == "" {
			return fmt.Errorf("link kind %q requires a device", c.Link.Kind)
		}
	case KindWebSocket:
		if c.Link.URL == "" {
			return fmt.Errorf("link kind %q requires a url", c.Link.Kind)
		}
	case KindTCP:
		if c.Link.Addr == "" {
			return fmt.Errorf("link kind %q requires an addr", c.Link.Kind)
		}
	default:
		return fmt.Errorf("unknown link kind %q (use uart, i2c, spi, spi-ss, ws or tcp)", c.Link.Kind)
	}
	if c.Protocol.HandshakeTimeout <= 0 {
		return fmt.Errorf("protocol.handshake_timeout must be positive")
	}
	return nil
}

// SessionOptions converts the protocol tunables into session options
func (c Config) SessionOptions() []ocellus.Option {
	return []ocellus.Option{
		ocellus.WithBusyDelay(c.Protocol.BusyDelay),
		ocellus.WithProgramDelay(c.Protocol.ProgramDelay),
		ocellus.WithSyncDelay(c.Protocol.SyncDelay),
		ocellus.WithHandshakeTimeout(c.Protocol.HandshakeTimeout),
		ocellus.WithHandshakeDelay(c.Protocol.HandshakeDelay),
	}
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse %s: negative duration %s", key, d)
	}
	return d, nil
}
