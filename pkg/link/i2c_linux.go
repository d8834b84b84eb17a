// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build linux

package link

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	// DefaultI2CAddress is the sensor's factory I2C address
	DefaultI2CAddress = 0x54

	i2cSlave     = 0x0703 // I2C_SLAVE ioctl
	i2cChunkSize = 16
)

// I2C talks to the sensor through a Linux /dev/i2c-N adapter
type I2C struct {
	bus  int
	addr uint16

	mu   sync.Mutex
	file *os.File
}

// NewI2C returns an unopened I2C link on /dev/i2c-<bus>
func NewI2C(bus int, addr uint16) *I2C {
	if addr == 0 {
		addr = DefaultI2CAddress
	}
	return &I2C{bus: bus, addr: addr}
}

func (l *I2C) String() string {
	return fmt.Sprintf("I2C: /dev/i2c-%d @ 0x%02x", l.bus, l.addr)
}

func (l *I2C) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return nil
	}

	path := fmt.Sprintf("/dev/i2c-%d", l.bus)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, int(l.addr)); err != nil {
		f.Close()
		return fmt.Errorf("failed to select address 0x%02x on %s: %w", l.addr, path, err)
	}

	l.file = f
	return nil
}

func (l *I2C) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Send writes buf as one I2C write transaction
func (l *I2C) Send(buf []byte) (int, error) {
	if l.file == nil {
		return 0, ErrNotOpen
	}
	return l.file.Write(buf)
}

// Recv reads len(buf) bytes in chunks of at most 16 bytes
func (l *I2C) Recv(buf []byte, cs *uint16) (int, error) {
	if l.file == nil {
		return 0, ErrNotOpen
	}

	for off := 0; off < len(buf); {
		end := min(off+i2cChunkSize, len(buf))
		n, err := l.file.Read(buf[off:end])
		Accumulate(cs, buf[off:off+n])
		off += n
		if err != nil {
			return off, err
		}
		if n == 0 {
			return off, ErrReadTimeout
		}
	}
	return len(buf), nil
}
