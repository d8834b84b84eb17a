// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

var (
	lineAll      bool
	lineFeatures uint8
	lineWait     bool

	turnDefault   bool
	vectorReverse bool
)

var lineCmd = &cobra.Command{
	Use:   "line",
	Short: "Read detected line features",
	Long: `Read vectors, intersections and barcodes from the line tracking program.

By default only the main features are returned: the primary vector, the next
intersection and any barcodes. --all returns every feature in view.

--features is a bitmap: 1 vectors, 2 intersections, 4 barcodes.`,
	Args: cobra.NoArgs,
	RunE: runLine,
}

var lineModeCmd = &cobra.Command{
	Use:   "line-mode MODE",
	Short: "Set the line tracking mode bits",
	Long: `Set the line tracking mode.

MODE is a bitmap:
  0x01  turn delayed
  0x02  manual vector select
  0x80  white line on dark background`,
	Args: cobra.ExactArgs(1),
	RunE: runLineMode,
}

var turnCmd = &cobra.Command{
	Use:   "turn ANGLE",
	Short: "Set the turn angle for the next intersection",
	Long: `Set the angle in degrees to take at the next intersection
(0 straight, 90 left, -90 right). With --default the angle is used
whenever no next turn is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runTurn,
}

var vectorCmd = &cobra.Command{
	Use:   "vector [INDEX]",
	Short: "Select the primary vector, or reverse it with --reverse",
	Args:  cobra.RangeArgs(0, 1),
	RunE:  runVector,
}

func init() {
	rootCmd.AddCommand(lineCmd)
	lineCmd.Flags().BoolVar(&lineAll, "all", false, "Return all features instead of the main ones")
	lineCmd.Flags().Uint8Var(&lineFeatures, "features", ocellus.FeatureAll, "Feature bitmap")
	lineCmd.Flags().BoolVar(&lineWait, "wait", true, "Wait for a new frame when the sensor is busy")

	rootCmd.AddCommand(lineModeCmd)

	rootCmd.AddCommand(turnCmd)
	turnCmd.Flags().BoolVar(&turnDefault, "default", false, "Set the default turn angle")

	rootCmd.AddCommand(vectorCmd)
	vectorCmd.Flags().BoolVar(&vectorReverse, "reverse", false, "Reverse the primary vector")
}

func runLine(cmd *cobra.Command, args []string) error {
	scope := uint8(ocellus.LineMainFeatures)
	if lineAll {
		scope = ocellus.LineAllFeatures
	}

	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		f, err := sess.Line.GetFeatures(cmd.Context(), scope, lineFeatures, lineWait)
		if err != nil {
			return err
		}
		return printResult(ocellus.TypeResponseLineFeatures, f, ocellus.FormatFeatures(f))
	})
}

func runLineMode(cmd *cobra.Command, args []string) error {
	mode, err := parseUintArg("mode", args[0], 8)
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		if err := sess.Line.SetMode(cmd.Context(), uint8(mode)); err != nil {
			return err
		}
		return printOK("line mode")
	})
}

func runTurn(cmd *cobra.Command, args []string) error {
	angle, err := parseIntArg("angle", args[0], 16)
	if err != nil {
		return err
	}
	if angle < -180 || angle > 180 {
		return fmt.Errorf("invalid angle %d: must be -180 to 180", angle)
	}

	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		if turnDefault {
			if err := sess.Line.SetDefaultTurn(cmd.Context(), int16(angle)); err != nil {
				return err
			}
			return printOK("default turn")
		}
		if err := sess.Line.SetNextTurn(cmd.Context(), int16(angle)); err != nil {
			return err
		}
		return printOK("next turn")
	})
}

func runVector(cmd *cobra.Command, args []string) error {
	if vectorReverse == (len(args) == 1) {
		return fmt.Errorf("give either a vector INDEX or --reverse")
	}

	var index uint64
	if !vectorReverse {
		var err error
		if index, err = parseUintArg("index", args[0], 8); err != nil {
			return err
		}
	}

	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		if vectorReverse {
			if err := sess.Line.ReverseVector(cmd.Context()); err != nil {
				return err
			}
			return printOK("reverse vector")
		}
		if err := sess.Line.SetVector(cmd.Context(), uint8(index)); err != nil {
			return err
		}
		return printOK("select vector")
	})
}
