// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Link is a byte transport to the device (UART, SPI, I2C or a tunnel).
// Implementations live in package link.
//
// Recv must fill buf completely or return an error. When cs is not nil every
// received byte is added to *cs. Individual reads may block; adapters are
// expected to enforce their own read timeout.
type Link interface {
	Open() error
	Close() error
	Send(buf []byte) (int, error)
	Recv(buf []byte, cs *uint16) (int, error)
}

// Engine implements packet synchronization, framing and checksum validation
// over a Link. It owns a single buffer that is reused by every transaction.
type Engine struct {
	link        Link
	buf         [BufferSize]byte
	checksummed bool
	syncDelay   time.Duration
	stats       *Statistics
}

// NewEngine creates a packet engine on top of link.
// stats may be nil.
func NewEngine(link Link, stats *Statistics) *Engine {
	if stats == nil {
		stats = NewStatistics()
	}
	return &Engine{
		link:      link,
		syncDelay: DefaultSyncDelay,
		stats:     stats,
	}
}

// Checksummed reports whether the last received frame used the checksummed sync marker
func (e *Engine) Checksummed() bool {
	return e.checksummed
}

// SendPacket frames payload with the unchecksummed sync marker and writes it
// in one link send. Returns the number of bytes the link reports sent.
func (e *Engine) SendPacket(msgType uint8, payload []byte) (int, error) {
	if len(payload) > MaxPayloadSize {
		return 0, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	n := SendHeaderSize + len(payload)
	binary.LittleEndian.PutUint16(e.buf[0:2], SyncNoChecksum)
	e.buf[2] = msgType
	e.buf[3] = uint8(len(payload))
	copy(e.buf[SendHeaderSize:], payload)

	sent, err := e.link.Send(e.buf[:n])
	if err != nil {
		return sent, &TransportError{Op: "send", Err: err}
	}
	e.stats.bytesSent.Add(uint64(sent))
	if sent != n {
		return sent, &TransportError{Op: "send", Err: fmt.Errorf("short write: %d of %d bytes", sent, n)}
	}

	return sent, nil
}

// RecvPacket waits for a sync marker and reads one frame.
// The returned packet's payload aliases the engine buffer.
func (e *Engine) RecvPacket() (*Packet, error) {
	if err := e.getSync(); err != nil {
		return nil, err
	}

	p := &Packet{checksummed: e.checksummed}

	if e.checksummed {
		hdr := e.buf[:ChecksumHeaderSize]
		if err := e.recv("receive header", hdr, nil); err != nil {
			return nil, err
		}
		p.msgType = hdr[0]
		p.length = hdr[1]
		p.checksum = binary.LittleEndian.Uint16(hdr[2:4])

		var sum uint16
		payload := e.buf[:p.length]
		if err := e.recv("receive payload", payload, &sum); err != nil {
			return nil, err
		}
		if sum != p.checksum {
			return nil, &ChecksumError{Expected: p.checksum, Actual: sum}
		}
		p.payload = payload
	} else {
		hdr := e.buf[:PlainHeaderSize]
		if err := e.recv("receive header", hdr, nil); err != nil {
			return nil, err
		}
		p.msgType = hdr[0]
		p.length = hdr[1]

		payload := e.buf[:p.length]
		if err := e.recv("receive payload", payload, nil); err != nil {
			return nil, err
		}
		p.payload = payload
	}

	p.timestamp = time.Now()
	e.stats.packetsReceived.Add(1)
	return p, nil
}

// getSync scans the stream one byte at a time for a sync marker. The current
// byte forms the high half of the window and the previous byte the low half.
// Reads are grouped in windows; between windows the engine pauses for
// syncDelay. Read errors count as empty reads.
func (e *Engine) getSync() error {
	var (
		c       [1]byte
		prev    byte
		lastErr error
	)

	for round := 0; round <= syncRetries; round++ {
		if round > 0 {
			time.Sleep(e.syncDelay)
		}
		for i := 0; i < syncWindow; i++ {
			if _, err := e.link.Recv(c[:], nil); err != nil {
				lastErr = err
				continue
			}
			e.stats.bytesReceived.Add(1)

			window := uint16(prev) | uint16(c[0])<<8
			prev = c[0]

			switch window {
			case SyncChecksum:
				e.checksummed = true
				return nil
			case SyncNoChecksum:
				e.checksummed = false
				return nil
			}
		}
	}

	if lastErr != nil {
		return fmt.Errorf("%w: last read: %v", ErrSyncTimeout, lastErr)
	}
	return ErrSyncTimeout
}

func (e *Engine) recv(op string, buf []byte, cs *uint16) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := e.link.Recv(buf, cs)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	e.stats.bytesReceived.Add(uint64(n))
	if n != len(buf) {
		return &TransportError{Op: op, Err: fmt.Errorf("short read: %d of %d bytes", n, len(buf))}
	}
	return nil
}
