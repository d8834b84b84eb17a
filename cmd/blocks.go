// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

var (
	blocksSigmap uint8
	blocksMax    uint8
	blocksWait   bool
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Read detected color blocks",
	Long: `Read the color blocks detected in the current frame.

The sensor must run the color_connected_components program. --sigmap selects
signatures as a bitmap: bits 0-6 are signatures 1-7 and bit 7 selects color
codes. Color code signatures are printed in octal, one digit per signature.

Without --wait the command fails with "device busy" when no new frame is ready.`,
	Args: cobra.NoArgs,
	RunE: runBlocks,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().Uint8Var(&blocksSigmap, "sigmap", ocellus.SigAll, "Signature bitmap")
	blocksCmd.Flags().Uint8Var(&blocksMax, "max", 255, "Maximum number of blocks")
	blocksCmd.Flags().BoolVar(&blocksWait, "wait", true, "Wait for a new frame when the sensor is busy")
}

func runBlocks(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		blocks, err := sess.CCC.GetBlocks(cmd.Context(), blocksSigmap, blocksMax, blocksWait)
		if err != nil {
			return err
		}
		if blocks == nil {
			blocks = []ocellus.Block{}
		}
		return printResult(ocellus.TypeResponseBlocks, blocks, ocellus.FormatBlocks(blocks))
	})
}
