// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build linux

package link

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// DefaultSPISpeed is the default SPI clock in Hz
	DefaultSPISpeed = 2000000

	spiMode3 = 0x03
	spiNoCS  = 0x40

	// _IOW('k', nr, size)
	spiIOCWrMode        = 0x40016b01
	spiIOCWrBitsPerWord = 0x40016b03
	spiIOCWrMaxSpeedHz  = 0x40046b04
)

// SPI talks to the sensor through a Linux spidev device in mode 3.
// With chip select disabled the sensor frames transfers on its own.
type SPI struct {
	device     string
	speedHz    uint32
	chipSelect bool

	mu   sync.Mutex
	file *os.File
}

// NewSPI returns an unopened SPI link without chip select
func NewSPI(device string, speedHz uint32) *SPI {
	return newSPI(device, speedHz, false)
}

// NewSPIWithSelect returns an unopened SPI link that asserts chip select
func NewSPIWithSelect(device string, speedHz uint32) *SPI {
	return newSPI(device, speedHz, true)
}

func newSPI(device string, speedHz uint32, chipSelect bool) *SPI {
	if speedHz == 0 {
		speedHz = DefaultSPISpeed
	}
	return &SPI{device: device, speedHz: speedHz, chipSelect: chipSelect}
}

func (l *SPI) String() string {
	cs := "no select"
	if l.chipSelect {
		cs = "select"
	}
	return fmt.Sprintf("SPI: %s @ %d Hz (%s)", l.device, l.speedHz, cs)
}

// mode returns the spidev mode byte
func (l *SPI) mode() uint8 {
	m := uint8(spiMode3)
	if !l.chipSelect {
		m |= spiNoCS
	}
	return m
}

func (l *SPI) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return nil
	}

	f, err := os.OpenFile(l.device, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", l.device, err)
	}

	mode := l.mode()
	bits := uint8(8)
	speed := l.speedHz
	settings := []struct {
		name string
		req  uint
		arg  unsafe.Pointer
	}{
		{"mode", spiIOCWrMode, unsafe.Pointer(&mode)},
		{"bits per word", spiIOCWrBitsPerWord, unsafe.Pointer(&bits)},
		{"speed", spiIOCWrMaxSpeedHz, unsafe.Pointer(&speed)},
	}
	for _, s := range settings {
		if err := ioctl(f.Fd(), s.req, s.arg); err != nil {
			f.Close()
			return fmt.Errorf("failed to set SPI %s on %s: %w", s.name, l.device, err)
		}
	}

	l.file = f
	return nil
}

func (l *SPI) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Send clocks buf out in one transfer
func (l *SPI) Send(buf []byte) (int, error) {
	if l.file == nil {
		return 0, ErrNotOpen
	}
	return l.file.Write(buf)
}

// Recv clocks len(buf) bytes in; the device sends 0x00 while it has nothing
// to say, which the engine's sync search skips
func (l *SPI) Recv(buf []byte, cs *uint16) (int, error) {
	if l.file == nil {
		return 0, ErrNotOpen
	}
	n, err := l.file.Read(buf)
	Accumulate(cs, buf[:n])
	if err == nil && n != len(buf) {
		err = fmt.Errorf("short SPI read: %d of %d bytes", n, len(buf))
	}
	return n, err
}

func ioctl(fd uintptr, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
