// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// EncodeResult encodes a command result as a CBOR message: [msg_type, result].
// msgType is the response type the result came from (e.g. TypeResponseBlocks)
// and result is a Block slice, *Features, RGB, *Version or Resolution.
func EncodeResult(msgType uint8, result interface{}) ([]byte, error) {
	data, err := cbor.Marshal([]interface{}{uint64(msgType), result})
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR result: %w", err)
	}
	return data, nil
}

// DecodeResult parses a CBOR message produced by EncodeResult into out and
// returns its message type
func DecodeResult(data []byte, out interface{}) (uint8, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty CBOR payload")
	}

	var msg []cbor.RawMessage
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return 0, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	if len(msg) != 2 {
		return 0, fmt.Errorf("expected 2-element array, got %d elements", len(msg))
	}

	var msgType uint64
	if err := cbor.Unmarshal(msg[0], &msgType); err != nil {
		return 0, fmt.Errorf("expected uint for message type: %w", err)
	}
	if msgType > 255 {
		return 0, fmt.Errorf("message type out of range: %d", msgType)
	}

	if err := cbor.Unmarshal(msg[1], out); err != nil {
		return 0, fmt.Errorf("failed to decode result: %w", err)
	}
	return uint8(msgType), nil
}
