// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// UART defaults
const (
	DefaultBaudRate    = 19200
	DefaultReadTimeout = 100 * time.Millisecond
)

// serialPort turns the library's (0, nil) timeout result into ErrReadTimeout
// so io.ReadFull cannot spin on an idle port
type serialPort struct {
	port serial.Port
}

func (s *serialPort) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if n == 0 && err == nil {
		return 0, ErrReadTimeout
	}
	return n, err
}

func (s *serialPort) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialPort) Close() error {
	return s.port.Close()
}

// OpenSerialPort opens a serial port at 8N1 with the given read timeout
func OpenSerialPort(portName string, baudRate int, readTimeout time.Duration) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	return &serialPort{port: port}, nil
}

// NewUART returns an unopened UART link
func NewUART(portName string, baudRate int, readTimeout time.Duration) *Stream {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return NewStream(fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), func() (io.ReadWriteCloser, error) {
		return OpenSerialPort(portName, baudRate, readTimeout)
	})
}
