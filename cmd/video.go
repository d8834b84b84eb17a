// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

var rgbSaturate bool

var rgbCmd = &cobra.Command{
	Use:   "rgb X Y",
	Short: "Read the color around a pixel",
	Long: `Read the averaged color of a small region centered on pixel (X, Y).

The sensor must run the video program. With --saturate the color is scaled so
its largest component is 255.`,
	Args: cobra.ExactArgs(2),
	RunE: runRGB,
}

func init() {
	rootCmd.AddCommand(rgbCmd)
	rgbCmd.Flags().BoolVar(&rgbSaturate, "saturate", false, "Scale the color to full saturation")
}

func runRGB(cmd *cobra.Command, args []string) error {
	x, err := parseUintArg("x", args[0], 16)
	if err != nil {
		return err
	}
	y, err := parseUintArg("y", args[1], 16)
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		c, err := sess.Video.GetRGB(cmd.Context(), uint16(x), uint16(y), rgbSaturate)
		if err != nil {
			return err
		}
		return printResult(ocellus.TypeResponseResult, c, c.String()+"\n")
	})
}
