// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

var servoCmd = &cobra.Command{
	Use:   "servo PAN TILT",
	Short: "Set the pan and tilt servo positions (0-1000)",
	Args:  cobra.ExactArgs(2),
	RunE:  runServo,
}

var ledCmd = &cobra.Command{
	Use:   "led R G B",
	Short: "Set the RGB LED color",
	Args:  cobra.ExactArgs(3),
	RunE:  runLED,
}

var lampCmd = &cobra.Command{
	Use:   "lamp UPPER LOWER",
	Short: "Switch the upper and lower lamps (0 off, 1 on)",
	Args:  cobra.ExactArgs(2),
	RunE:  runLamp,
}

var brightnessCmd = &cobra.Command{
	Use:   "brightness LEVEL",
	Short: "Set the camera brightness (0-255)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrightness,
}

func init() {
	rootCmd.AddCommand(servoCmd)
	rootCmd.AddCommand(ledCmd)
	rootCmd.AddCommand(lampCmd)
	rootCmd.AddCommand(brightnessCmd)
}

func runServo(cmd *cobra.Command, args []string) error {
	var pos [2]uint16
	for i, name := range []string{"pan", "tilt"} {
		v, err := parseUintArg(name, args[i], 16)
		if err != nil {
			return err
		}
		if v > 1000 {
			return fmt.Errorf("invalid %s %d: must be 0-1000", name, v)
		}
		pos[i] = uint16(v)
	}

	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		if err := sess.SetServos(cmd.Context(), pos[0], pos[1]); err != nil {
			return err
		}
		return printOK("servo")
	})
}

func runLED(cmd *cobra.Command, args []string) error {
	var rgb [3]uint8
	for i, name := range []string{"red", "green", "blue"} {
		v, err := parseUintArg(name, args[i], 8)
		if err != nil {
			return err
		}
		rgb[i] = uint8(v)
	}

	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		if err := sess.SetLED(cmd.Context(), rgb[0], rgb[1], rgb[2]); err != nil {
			return err
		}
		return printOK("led")
	})
}

func runLamp(cmd *cobra.Command, args []string) error {
	upper, err := parseUintArg("upper", args[0], 8)
	if err != nil {
		return err
	}
	lower, err := parseUintArg("lower", args[1], 8)
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		if err := sess.SetLamp(cmd.Context(), uint8(upper), uint8(lower)); err != nil {
			return err
		}
		return printOK("lamp")
	})
}

func runBrightness(cmd *cobra.Command, args []string) error {
	level, err := parseUintArg("level", args[0], 8)
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), func(sess *ocellus.Session) error {
		if err := sess.SetCameraBrightness(cmd.Context(), uint8(level)); err != nil {
			return err
		}
		return printOK("brightness")
	})
}
