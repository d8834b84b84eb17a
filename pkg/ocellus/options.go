// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"time"

	"github.com/rs/zerolog"
)

// Config holds the session configuration.
type Config struct {
	// Logger receives debug output for retries and the handshake (default: disabled)
	Logger zerolog.Logger

	// Statistics collects transaction counters (default: a new tracker per session)
	Statistics *Statistics

	// BusyDelay is the pause before re-sending a request the device reported busy
	BusyDelay time.Duration

	// ProgramDelay is the pause between polls while a program change completes
	ProgramDelay time.Duration

	// SyncDelay is the pause between sync search windows
	SyncDelay time.Duration

	// HandshakeTimeout bounds the version probe loop in Init
	HandshakeTimeout time.Duration

	// HandshakeDelay is the pause between version probes
	HandshakeDelay time.Duration
}

func defaultConfig() Config {
	return Config{
		Logger:           zerolog.Nop(),
		BusyDelay:        DefaultBusyDelay,
		ProgramDelay:     DefaultProgramDelay,
		SyncDelay:        DefaultSyncDelay,
		HandshakeTimeout: DefaultHandshakeTimeout,
		HandshakeDelay:   DefaultHandshakeDelay,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithLogger sets the logger used by the session.
//
// Example:
//
//	sess := ocellus.New(l, ocellus.WithLogger(zerolog.New(os.Stderr)))
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithStatistics shares a statistics tracker with the session, e.g. one that
// is already registered with a metrics collector.
func WithStatistics(stats *Statistics) Option {
	return func(c *Config) {
		if stats != nil {
			c.Statistics = stats
		}
	}
}

// WithBusyDelay sets the wait between busy retries.
// The default of 500µs may be too short for slow links such as I2C.
func WithBusyDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.BusyDelay = d
		}
	}
}

// WithProgramDelay sets the wait between program change polls.
func WithProgramDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.ProgramDelay = d
		}
	}
}

// WithSyncDelay sets the pause between sync search windows.
func WithSyncDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.SyncDelay = d
		}
	}
}

// WithHandshakeTimeout sets the overall deadline for Init.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.HandshakeTimeout = d
		}
	}
}

// WithHandshakeDelay sets the wait between version probes during Init.
func WithHandshakeDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.HandshakeDelay = d
		}
	}
}
