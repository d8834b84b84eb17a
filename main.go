// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Ocellus - vision sensor host client
//
// A CLI tool for querying and controlling Ocellus vision sensors over UART,
// I2C, SPI or a network tunnel.

package main

import (
	"os"

	"github.com/Thermoquad/ocellus/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
