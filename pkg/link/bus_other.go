// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !linux

package link

import (
	"errors"
	"fmt"
)

const (
	DefaultI2CAddress = 0x54
	DefaultSPISpeed   = 2000000
)

var errUnsupported = errors.New("I2C and SPI links are only supported on Linux")

// I2C is unavailable on this platform; Open always fails
type I2C struct {
	bus  int
	addr uint16
}

func NewI2C(bus int, addr uint16) *I2C {
	return &I2C{bus: bus, addr: addr}
}

func (l *I2C) String() string                    { return fmt.Sprintf("I2C: bus %d @ 0x%02x", l.bus, l.addr) }
func (l *I2C) Open() error                       { return errUnsupported }
func (l *I2C) Close() error                      { return nil }
func (l *I2C) Send([]byte) (int, error)          { return 0, ErrNotOpen }
func (l *I2C) Recv([]byte, *uint16) (int, error) { return 0, ErrNotOpen }

// SPI is unavailable on this platform; Open always fails
type SPI struct {
	device string
}

func NewSPI(device string, speedHz uint32) *SPI           { return &SPI{device: device} }
func NewSPIWithSelect(device string, speedHz uint32) *SPI { return &SPI{device: device} }

func (l *SPI) String() string                    { return "SPI: " + l.device }
func (l *SPI) Open() error                       { return errUnsupported }
func (l *SPI) Close() error                      { return nil }
func (l *SPI) Send([]byte) (int, error)          { return 0, ErrNotOpen }
func (l *SPI) Recv([]byte, *uint16) (int, error) { return 0, ErrNotOpen }
