// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the sensor's hardware and firmware version",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

var resolutionCmd = &cobra.Command{
	Use:   "resolution",
	Short: "Show the frame resolution of the running program",
	Args:  cobra.NoArgs,
	RunE:  runResolution,
}

var fpsCmd = &cobra.Command{
	Use:   "fps",
	Short: "Show the sensor's current frame rate",
	Args:  cobra.NoArgs,
	RunE:  runFPS,
}

var programCmd = &cobra.Command{
	Use:   "program NAME",
	Short: "Switch the running program",
	Long: `Switch the sensor's running program and wait until it is active.

Known programs:
  color_connected_components
  line_tracking
  video`,
	Args: cobra.ExactArgs(1),
	RunE: runProgram,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(resolutionCmd)
	rootCmd.AddCommand(fpsCmd)
	rootCmd.AddCommand(programCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		// The handshake already fetched it
		v := sess.Version()
		return printResult(ocellus.TypeResponseVersion, v, v.String()+"\n")
	})
}

func runResolution(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		r, err := sess.GetResolution(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(ocellus.TypeResponseResolution, r, fmt.Sprintf("%dx%d\n", r.Width, r.Height))
	})
}

func runFPS(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		fps, err := sess.GetFPS(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(ocellus.TypeResponseResult, fps, fmt.Sprintf("%d fps\n", fps))
	})
}

func runProgram(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		if err := sess.ChangeProgram(cmd.Context(), args[0]); err != nil {
			return err
		}
		r := sess.Resolution()
		return printResult(ocellus.TypeResponseResolution, r,
			fmt.Sprintf("program %s running (%dx%d)\n", args[0], r.Width, r.Height))
	})
}
