// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

var (
	probeTimeout int
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test the connection by completing the device handshake",
	Long: `Open the link and probe the sensor with version queries until it answers.

The sensor drops requests while it boots, so the probe keeps asking until a
version response arrives or the timeout elapses.

Exit codes:
  0 - Sensor answered before timeout
  1 - Timeout reached without an answer
  2 - Connection error

Useful for checking wiring and bus settings before running other commands.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 5, "Timeout in seconds to wait for the sensor")
}

func runProbe(cmd *cobra.Command, args []string) error {
	if probeTimeout <= 0 {
		return fmt.Errorf("invalid timeout %d: must be positive", probeTimeout)
	}
	timeout := time.Duration(probeTimeout) * time.Second

	fmt.Fprintf(os.Stderr, "Ocellus - Probe\n")
	fmt.Fprintf(os.Stderr, "Timeout: %d seconds\n", probeTimeout)
	fmt.Fprintf(os.Stderr, "Waiting for sensor...\n\n")

	start := time.Now()
	sess, connInfo, err := OpenSession(cmd.Context(), ocellus.WithHandshakeTimeout(timeout))
	if err != nil {
		if errors.Is(err, ocellus.ErrHandshakeTimeout) {
			fmt.Fprintf(os.Stderr, "TIMEOUT: %s did not answer within %d seconds\n", connInfo, probeTimeout)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer sess.Close()

	v := sess.Version()
	r := sess.Resolution()
	stats := sess.Stats().Snapshot()

	fmt.Printf("SUCCESS: Sensor answered after %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Connection: %s\n", connInfo)
	fmt.Printf("  Hardware: 0x%04x\n", v.Hardware)
	fmt.Printf("  Firmware: %s\n", v.Firmware())
	fmt.Printf("  Resolution: %dx%d\n", r.Width, r.Height)
	fmt.Printf("  Sync timeouts: %d\n", stats.SyncTimeouts)

	return nil
}
