// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

// printResult writes a command result: the text rendering, or with
// --output cbor the [msg_type, result] CBOR message
func printResult(msgType uint8, result interface{}, text string) error {
	if outputFmt == "cbor" {
		data, err := ocellus.EncodeResult(msgType, result)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	fmt.Print(text)
	return nil
}

// printOK reports a successful actuator command
func printOK(what string) error {
	return printResult(ocellus.TypeResponseResult, ocellus.ResultOK, fmt.Sprintf("%s: ok\n", what))
}

func parseUintArg(name, s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an unsigned %d-bit number", name, s, bits)
	}
	return v, nil
}

func parseIntArg(name, s string, bits int) (int64, error) {
	v, err := strconv.ParseInt(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a signed %d-bit number", name, s, bits)
	}
	return v, nil
}

func parseDurationFlag(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid --%s %q: use a duration such as 100ms", name, s)
	}
	return d, nil
}
