// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"errors"
	"fmt"
)

var (
	ErrSyncTimeout      = errors.New("ocellus: no sync marker (device not responding)")
	ErrChecksum         = errors.New("ocellus: checksum mismatch")
	ErrBusy             = errors.New("ocellus: device busy")
	ErrHandshakeTimeout = errors.New("ocellus: handshake timeout")
	ErrPayloadTooLarge  = errors.New("ocellus: payload too large")
	ErrMalformedPayload = errors.New("ocellus: malformed payload")
	ErrProgramName      = errors.New("ocellus: invalid program name")
)

// TransportError wraps a failure reported by the link (open, send or receive)
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ocellus: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ChecksumError reports a payload integrity mismatch on a checksummed frame
type ChecksumError struct {
	Expected uint16 // value carried in the header
	Actual   uint16 // value computed over the received payload
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("ocellus: checksum mismatch: header 0x%04X, computed 0x%04X", e.Expected, e.Actual)
}

func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksum
}

// ProtocolError carries a structured result code returned by the device.
// The code is passed through verbatim.
type ProtocolError struct {
	Op   string
	Code int32
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ocellus: %s failed: %s (%d)", e.Op, ResultName(e.Code), e.Code)
}

// UnexpectedResponseError reports a response whose type or length does not
// match the request
type UnexpectedResponseError struct {
	Op     string
	Type   uint8
	Length uint8
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("ocellus: %s: unexpected response %s (0x%02X) len=%d",
		e.Op, FormatMessageType(e.Type), e.Type, e.Length)
}

// IsProtocolError returns true if err is or wraps a ProtocolError
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsTransportError returns true if err is or wraps a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ResultName returns a human-readable name for a device result code
func ResultName(code int32) string {
	switch code {
	case ResultOK:
		return "ok"
	case ResultError:
		return "error"
	case ResultBusy:
		return "busy"
	case ResultChecksumError:
		return "checksum error"
	case ResultTimeout:
		return "timeout"
	case ResultButtonOverride:
		return "button override"
	case ResultProgChanging:
		return "program changing"
	default:
		return "unknown result"
	}
}
