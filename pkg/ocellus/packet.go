// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Packet represents a decoded Ocellus protocol packet
type Packet struct {
	msgType     uint8
	length      uint8
	checksum    uint16
	checksummed bool
	payload     []byte
	timestamp   time.Time
}

// NewPacket creates a new packet with the given fields.
// The payload checksum is computed automatically.
func NewPacket(msgType uint8, payload []byte) *Packet {
	return &Packet{
		msgType:     msgType,
		length:      uint8(len(payload)),
		checksum:    Checksum(payload),
		checksummed: true,
		payload:     payload,
		timestamp:   time.Now(),
	}
}

// Type returns the packet's message type
func (p *Packet) Type() uint8 {
	return p.msgType
}

// Length returns the packet's payload length
func (p *Packet) Length() uint8 {
	return p.length
}

// Payload returns the raw payload bytes.
// Packets returned by Engine.RecvPacket share the engine buffer; the payload is
// only valid until the next transaction on the same engine.
func (p *Packet) Payload() []byte {
	return p.payload
}

// Checksum returns the checksum carried on the wire, and false when the packet
// was received in unchecksummed mode
func (p *Packet) Checksum() (uint16, bool) {
	return p.checksum, p.checksummed
}

// Timestamp returns the packet's decode timestamp
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}

// EncodePacket creates a complete wire-formatted packet.
// Requests always use the unchecksummed sync marker; checksummed frames are
// produced by devices and by test simulators.
func EncodePacket(msgType uint8, payload []byte, checksummed bool) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	if !checksummed {
		frame := make([]byte, SendHeaderSize+len(payload))
		binary.LittleEndian.PutUint16(frame[0:2], SyncNoChecksum)
		frame[2] = msgType
		frame[3] = uint8(len(payload))
		copy(frame[SendHeaderSize:], payload)
		return frame, nil
	}

	frame := make([]byte, 2+ChecksumHeaderSize+len(payload))
	binary.LittleEndian.PutUint16(frame[0:2], SyncChecksum)
	frame[2] = msgType
	frame[3] = uint8(len(payload))
	binary.LittleEndian.PutUint16(frame[4:6], Checksum(payload))
	copy(frame[6:], payload)
	return frame, nil
}

// DecodePacket decodes a single complete frame that starts with a sync marker.
// Trailing bytes after the payload are ignored.
func DecodePacket(frame []byte) (*Packet, error) {
	if len(frame) < 2+PlainHeaderSize {
		return nil, fmt.Errorf("frame too short: %d bytes", len(frame))
	}

	p := &Packet{timestamp: time.Now()}
	header := 2 + PlainHeaderSize

	switch sync := binary.LittleEndian.Uint16(frame[0:2]); sync {
	case SyncChecksum:
		header = 2 + ChecksumHeaderSize
		if len(frame) < header {
			return nil, fmt.Errorf("frame too short for checksummed header: %d bytes", len(frame))
		}
		p.checksummed = true
		p.checksum = binary.LittleEndian.Uint16(frame[4:6])
	case SyncNoChecksum:
	default:
		return nil, fmt.Errorf("invalid sync marker: 0x%04x", sync)
	}

	p.msgType = frame[2]
	p.length = frame[3]

	end := header + int(p.length)
	if len(frame) < end {
		return nil, fmt.Errorf("frame truncated: have %d payload bytes, header claims %d", len(frame)-header, p.length)
	}
	p.payload = frame[header:end]

	if p.checksummed {
		if calc := Checksum(p.payload); calc != p.checksum {
			return nil, &ChecksumError{Expected: p.checksum, Actual: calc}
		}
	}

	return p, nil
}
