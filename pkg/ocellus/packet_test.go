// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// ============================================================
// Checksum Tests
// ============================================================

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{"empty", nil, 0},
		{"single", []byte{0x42}, 0x42},
		{"sum", []byte{0x01, 0x02, 0x03}, 0x06},
		{"carries past a byte", []byte{0xff, 0xff}, 0x01fe},
		{"wraps at 16 bits", bytes.Repeat([]byte{0xff}, 258), 0x00fe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.expected {
				t.Errorf("Checksum = 0x%04X, want 0x%04X", got, tt.expected)
			}
		})
	}
}

// ============================================================
// Encode/Decode Tests
// ============================================================

func TestEncodePacket_Checksummed(t *testing.T) {
	frame, err := EncodePacket(TypeResponseResult, []byte{0x10, 0x20}, true)
	if err != nil {
		t.Fatalf("EncodePacket failed: %v", err)
	}
	want := []byte{0xaf, 0xc1, TypeResponseResult, 2, 0x30, 0x00, 0x10, 0x20}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = % x, want % x", frame, want)
	}
}

func TestEncodePacket_TooLarge(t *testing.T) {
	_, err := EncodePacket(TypeResponseBlocks, make([]byte, 256), true)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestDecodePacket_RoundTrip(t *testing.T) {
	for _, checksummed := range []bool{true, false} {
		payload := []byte{1, 2, 3, 4, 5}
		frame, err := EncodePacket(TypeResponseBlocks, payload, checksummed)
		if err != nil {
			t.Fatalf("EncodePacket failed: %v", err)
		}

		p, err := DecodePacket(frame)
		if err != nil {
			t.Fatalf("checksummed=%v: DecodePacket failed: %v", checksummed, err)
		}
		if p.Type() != TypeResponseBlocks {
			t.Errorf("Type = 0x%02X, want 0x%02X", p.Type(), TypeResponseBlocks)
		}
		if !bytes.Equal(p.Payload(), payload) {
			t.Errorf("Payload = % x, want % x", p.Payload(), payload)
		}
		if _, ok := p.Checksum(); ok != checksummed {
			t.Errorf("checksummed = %v, want %v", ok, checksummed)
		}
	}
}

func TestDecodePacket_BitFlip(t *testing.T) {
	frame, _ := EncodePacket(TypeResponseBlocks, []byte{1, 2, 3, 4}, true)

	// Flipping any payload bit must be detected
	for i := 6; i < len(frame); i++ {
		for bit := 0; bit < 8; bit++ {
			corrupt := append([]byte(nil), frame...)
			corrupt[i] ^= 1 << bit
			if _, err := DecodePacket(corrupt); !errors.Is(err, ErrChecksum) {
				t.Errorf("byte %d bit %d: expected ErrChecksum, got %v", i, bit, err)
			}
		}
	}
}

func TestDecodePacket_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  string
	}{
		{"too short", []byte{0xaf, 0xc1}, "too short"},
		{"bad sync", []byte{0x00, 0xc1, 0x01, 0x00}, "invalid sync"},
		{"short checksummed header", []byte{0xaf, 0xc1, 0x01, 0x00, 0x00}, "too short"},
		{"truncated", []byte{0xae, 0xc1, 0x01, 0x04, 0x01}, "truncated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePacket(tt.frame)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestNewPacket(t *testing.T) {
	p := NewPacket(TypeResponseResult, []byte{0x05, 0x00, 0x00, 0x00})
	if p.Length() != 4 {
		t.Errorf("Length = %d, want 4", p.Length())
	}
	if sum, ok := p.Checksum(); !ok || sum != 5 {
		t.Errorf("Checksum = %d/%v, want 5/true", sum, ok)
	}
	if p.Timestamp().IsZero() {
		t.Error("Timestamp should be set")
	}
}
