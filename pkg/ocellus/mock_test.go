// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

var errNoData = errors.New("read timeout")

// MockDevice simulates a sensor on the far side of a Link. Every request sent
// through it is recorded and handed to Respond; the frames Respond returns are
// queued for the engine to read.
type MockDevice struct {
	rx   bytes.Buffer
	sent [][]byte

	Respond func(msgType uint8, payload []byte) [][]byte

	openErr    error
	sendErr    error
	shortWrite bool
	opened     bool
	closed     bool
}

func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

func (m *MockDevice) Open() error {
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *MockDevice) Close() error {
	m.closed = true
	return nil
}

func (m *MockDevice) Send(buf []byte) (int, error) {
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.sent = append(m.sent, append([]byte(nil), buf...))
	if m.shortWrite {
		return len(buf) - 1, nil
	}
	if m.Respond != nil && len(buf) >= SendHeaderSize {
		for _, f := range m.Respond(buf[2], buf[SendHeaderSize:]) {
			m.rx.Write(f)
		}
	}
	return len(buf), nil
}

func (m *MockDevice) Recv(buf []byte, cs *uint16) (int, error) {
	if m.rx.Len() == 0 {
		return 0, errNoData
	}
	n, _ := m.rx.Read(buf)
	if cs != nil {
		for _, b := range buf[:n] {
			*cs += uint16(b)
		}
	}
	if n < len(buf) {
		return n, errNoData
	}
	return n, nil
}

// Feed queues raw bytes for the engine to read
func (m *MockDevice) Feed(data ...[]byte) {
	for _, d := range data {
		m.rx.Write(d)
	}
}

// Requests returns the message types of every request sent so far
func (m *MockDevice) Requests() []uint8 {
	types := make([]uint8, 0, len(m.sent))
	for _, f := range m.sent {
		types = append(types, f[2])
	}
	return types
}

// Script returns a responder that answers each request with the next frame
// from frames, and stays silent once they run out
func Script(frames ...[]byte) func(uint8, []byte) [][]byte {
	i := 0
	return func(uint8, []byte) [][]byte {
		if i >= len(frames) {
			return nil
		}
		f := frames[i]
		i++
		if f == nil {
			return nil
		}
		return [][]byte{f}
	}
}

// ============================================================
// Frame Builders
// ============================================================

func buildFrame(t testing.TB, msgType uint8, payload []byte) []byte {
	t.Helper()
	frame, err := EncodePacket(msgType, payload, true)
	if err != nil {
		t.Fatalf("EncodePacket failed: %v", err)
	}
	return frame
}

func buildPlainFrame(t testing.TB, msgType uint8, payload []byte) []byte {
	t.Helper()
	frame, err := EncodePacket(msgType, payload, false)
	if err != nil {
		t.Fatalf("EncodePacket failed: %v", err)
	}
	return frame
}

func resultFrame(t testing.TB, res int32) []byte {
	return buildFrame(t, TypeResponseResult, binary.LittleEndian.AppendUint32(nil, uint32(res)))
}

func errorFrame(t testing.TB, code int32) []byte {
	return buildFrame(t, TypeResponseError, []byte{uint8(int8(code))})
}

func versionPayload() []byte {
	p := []byte{0x22, 0x00, 3, 0, 0x0e, 0x00}
	name := make([]byte, 10)
	copy(name, "general")
	return append(p, name...)
}

func resolutionPayload(w, h uint16) []byte {
	p := binary.LittleEndian.AppendUint16(nil, w)
	return binary.LittleEndian.AppendUint16(p, h)
}

// newTestSession returns a session over a fresh mock device with short delays
func newTestSession(opts ...Option) (*Session, *MockDevice) {
	dev := NewMockDevice()
	opts = append([]Option{
		WithBusyDelay(0),
		WithProgramDelay(0),
		WithSyncDelay(0),
	}, opts...)
	return New(dev, opts...), dev
}
