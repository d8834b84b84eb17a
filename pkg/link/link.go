// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link provides byte transports for the Ocellus protocol engine.
//
// Every adapter is returned unopened and satisfies ocellus.Link; the session
// opens it during the handshake. UART, WebSocket and TCP tunnels are byte
// streams wrapped by Stream. I2C and SPI talk to Linux character devices.
package link

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

var (
	// ErrNotOpen is returned when sending or receiving on a link that is not open
	ErrNotOpen = errors.New("link not open")

	// ErrReadTimeout is returned when no byte arrives within the read timeout
	ErrReadTimeout = errors.New("read timeout")

	// ErrConnectionClosed is returned when reading from a closed tunnel
	ErrConnectionClosed = errors.New("connection closed")
)

// Accumulate adds every byte of data to *cs. A nil cs is ignored.
func Accumulate(cs *uint16, data []byte) {
	if cs == nil {
		return
	}
	for _, b := range data {
		*cs += uint16(b)
	}
}

// Opener dials or opens the underlying byte stream
type Opener func() (io.ReadWriteCloser, error)

// Stream adapts a byte stream to the packet engine. Receives block until the
// buffer is full; the stream itself must bound each read with a timeout and
// report it as an error.
type Stream struct {
	name string
	open Opener

	mu sync.Mutex
	rw io.ReadWriteCloser
}

// NewStream wraps a stream that is opened lazily by open
func NewStream(name string, open Opener) *Stream {
	return &Stream{name: name, open: open}
}

// FromReadWriteCloser wraps an already open stream. Open is a no-op until the
// stream is closed.
func FromReadWriteCloser(name string, rw io.ReadWriteCloser) *Stream {
	return &Stream{
		name: name,
		rw:   rw,
		open: func() (io.ReadWriteCloser, error) {
			return nil, fmt.Errorf("%s: stream cannot be reopened", name)
		},
	}
}

// String returns a human-readable description of the link
func (s *Stream) String() string {
	return s.name
}

func (s *Stream) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rw != nil {
		return nil
	}
	rw, err := s.open()
	if err != nil {
		return err
	}
	s.rw = rw
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rw == nil {
		return nil
	}
	err := s.rw.Close()
	s.rw = nil
	return err
}

func (s *Stream) conn() (io.ReadWriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rw == nil {
		return nil, ErrNotOpen
	}
	return s.rw, nil
}

// Send writes buf in a single write
func (s *Stream) Send(buf []byte) (int, error) {
	rw, err := s.conn()
	if err != nil {
		return 0, err
	}
	return rw.Write(buf)
}

// Recv reads exactly len(buf) bytes, adding them to *cs when cs is not nil
func (s *Stream) Recv(buf []byte, cs *uint16) (int, error) {
	rw, err := s.conn()
	if err != nil {
		return 0, err
	}
	n, err := io.ReadFull(rw, buf)
	Accumulate(cs, buf[:n])
	return n, err
}
