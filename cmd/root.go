// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/ocellus/internal/config"
	"github.com/Thermoquad/ocellus/internal/logging"
)

var (
	configPath string
	logLevel   string
	outputFmt  string

	// Link selection
	linkKind string

	// Serial connection flags
	portName    string
	baudRate    int
	readTimeout string

	// I2C / SPI flags
	i2cBus     int
	i2cAddr    uint16
	spiDevice  string
	spiSpeedHz uint32

	// Tunnel flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
	tcpAddr       string

	// Resolved before every command runs
	profile config.Config
	logger  zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ocellus",
	Short: "Ocellus vision sensor client",
	Long: `Ocellus - A CLI tool for querying and controlling Ocellus vision sensors.

Reads color blocks, line features and pixel colors, and drives the sensor's
servos, LED and lamps.

Connection modes:
  UART:      --port /dev/ttyACM0 [--baud 19200]
  I2C:       --link i2c [--i2c-bus 1] [--i2c-addr 0x54]
  SPI:       --link spi|spi-ss [--spi-device /dev/spidev0.0] [--spi-speed 2000000]
  WebSocket: --url ws://host/path [--username user]
  TCP:       --addr host:port

Settings may also come from a TOML profile given with --config; flags override
the profile. For WebSocket authentication, the password is read from the
OCELLUS_PASSWORD environment variable, or prompted interactively if not set.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadProfile,
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&configPath, "config", "", "TOML connection profile")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default from OCELLUS_LOG_LEVEL or warn")
	flags.StringVarP(&outputFmt, "output", "o", "text", "Output format: text or cbor")
	flags.StringVar(&linkKind, "link", "", "Link kind: uart, i2c, spi, spi-ss, ws or tcp")

	// Serial connection flags
	flags.StringVarP(&portName, "port", "p", "", "Serial port device")
	flags.IntVarP(&baudRate, "baud", "b", 19200, "Baud rate (serial only)")
	flags.StringVar(&readTimeout, "read-timeout", "", "Per-read timeout, e.g. 100ms")

	// I2C / SPI flags
	flags.IntVar(&i2cBus, "i2c-bus", 1, "I2C bus number (/dev/i2c-N)")
	flags.Uint16Var(&i2cAddr, "i2c-addr", 0x54, "I2C device address")
	flags.StringVar(&spiDevice, "spi-device", "/dev/spidev0.0", "SPI device")
	flags.Uint32Var(&spiSpeedHz, "spi-speed", 2000000, "SPI clock in Hz")

	// Tunnel flags
	flags.StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	flags.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	flags.StringVar(&tcpAddr, "addr", "", "TCP serial bridge address (host:port)")
}

// loadProfile resolves the connection profile: defaults, then the --config
// file, then any flag given on the command line
func loadProfile(cmd *cobra.Command, args []string) error {
	logger = logging.New("ocellus", logLevel)

	switch outputFmt {
	case "text", "cbor":
	default:
		return fmt.Errorf("unknown output format %q (use text or cbor)", outputFmt)
	}

	profile = config.Default()
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		profile = cfg
	}

	flags := cmd.Flags()
	l := &profile.Link

	if flags.Changed("port") {
		l.Port = portName
		l.Kind = config.KindUART
	}
	if flags.Changed("baud") {
		l.Baud = baudRate
	}
	if flags.Changed("read-timeout") {
		d, err := parseDurationFlag("read-timeout", readTimeout)
		if err != nil {
			return err
		}
		l.ReadTimeout = d
	}
	if flags.Changed("i2c-bus") {
		l.Bus = i2cBus
	}
	if flags.Changed("i2c-addr") {
		l.Address = i2cAddr
	}
	if flags.Changed("spi-device") {
		l.Device = spiDevice
	}
	if flags.Changed("spi-speed") {
		l.SpeedHz = spiSpeedHz
	}
	if flags.Changed("url") {
		l.URL = wsURL
		l.Kind = config.KindWebSocket
	}
	if flags.Changed("username") {
		l.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		l.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("addr") {
		l.Addr = tcpAddr
		l.Kind = config.KindTCP
	}
	// An explicit --link wins over the kind implied by other flags
	if flags.Changed("link") {
		l.Kind = linkKind
	}

	if err := profile.Validate(); err != nil {
		return err
	}

	logger.Debug().Str("kind", l.Kind).Str("config", configPath).Msg("profile resolved")
	return nil
}

// Execute runs the root command. Ctrl+C cancels the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
