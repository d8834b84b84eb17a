// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	timestamp := p.timestamp.Format("15:04:05.000")
	msgType := FormatMessageType(p.Type())

	cs := "none"
	if sum, ok := p.Checksum(); ok {
		cs = fmt.Sprintf("0x%04X", sum)
	}

	return fmt.Sprintf("[%s] %s (0x%02X) len=%d cs=%s\n", timestamp, msgType, p.Type(), p.Length(), cs)
}

// FormatMessageType returns the human-readable name for a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	// Generic
	case TypeResponseResult:
		return "RESULT"
	case TypeRequestChangeProg:
		return "CHANGE_PROG"
	case TypeResponseError:
		return "ERROR"
	case TypeRequestResolution:
		return "GET_RESOLUTION"
	case TypeResponseResolution:
		return "RESOLUTION"
	case TypeRequestVersion:
		return "GET_VERSION"
	case TypeResponseVersion:
		return "VERSION"
	case TypeRequestBrightness:
		return "SET_BRIGHTNESS"
	case TypeRequestServo:
		return "SET_SERVO"
	case TypeRequestLED:
		return "SET_LED"
	case TypeRequestLamp:
		return "SET_LAMP"
	case TypeRequestFPS:
		return "GET_FPS"

	// Color connected components
	case TypeRequestBlocks:
		return "GET_BLOCKS"
	case TypeResponseBlocks:
		return "BLOCKS"

	// Line tracking
	case TypeRequestLineFeatures:
		return "GET_LINE_FEATURES"
	case TypeResponseLineFeatures:
		return "LINE_FEATURES"
	case TypeRequestLineMode:
		return "SET_LINE_MODE"
	case TypeRequestLineVector:
		return "SET_VECTOR"
	case TypeRequestNextTurnAngle:
		return "SET_NEXT_TURN"
	case TypeRequestDefaultTurnAngle:
		return "SET_DEFAULT_TURN"
	case TypeRequestLineReverseVector:
		return "REVERSE_VECTOR"

	// Video
	case TypeRequestRGB:
		return "GET_RGB"

	default:
		return "UNKNOWN"
	}
}

// FormatSignature renders a signature; color codes are shown as octal digits
func FormatSignature(sig uint16) string {
	if sig > MaxSignature {
		return strconv.FormatUint(uint64(sig), 8) + " (CC)"
	}
	return strconv.FormatUint(uint64(sig), 10)
}

func (b Block) String() string {
	if b.IsColorCode() {
		return fmt.Sprintf("CC block sig: %s x: %d y: %d width: %d height: %d angle: %d index: %d age: %d",
			FormatSignature(b.Signature), b.X, b.Y, b.Width, b.Height, b.Angle, b.Index, b.Age)
	}
	return fmt.Sprintf("sig: %d x: %d y: %d width: %d height: %d index: %d age: %d",
		b.Signature, b.X, b.Y, b.Width, b.Height, b.Index, b.Age)
}

func (v Vector) String() string {
	return fmt.Sprintf("vector: (%d %d) (%d %d) index: %d flags: %s",
		v.X0, v.Y0, v.X1, v.Y1, v.Index, formatVectorFlags(v.Flags))
}

func (in Intersection) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "intersection: (%d %d)", in.X, in.Y)
	for i, l := range in.Lines {
		fmt.Fprintf(&s, "\n  %d: index: %d angle: %d", i, l.Index, l.Angle)
	}
	return s.String()
}

func (b Barcode) String() string {
	return fmt.Sprintf("barcode: (%d %d) value: %d flags: %d", b.X, b.Y, b.Code, b.Flags)
}

// FormatFeatures formats a line-features response, one feature per line
func FormatFeatures(f *Features) string {
	if f.Mask == 0 {
		return "  (no features)\n"
	}

	var s strings.Builder
	for _, v := range f.Vectors {
		s.WriteString("  " + v.String() + "\n")
	}
	for _, in := range f.Intersections {
		s.WriteString("  " + strings.ReplaceAll(in.String(), "\n", "\n  ") + "\n")
	}
	for _, b := range f.Barcodes {
		s.WriteString("  " + b.String() + "\n")
	}
	return s.String()
}

// FormatBlocks formats a block list, one block per line
func FormatBlocks(blocks []Block) string {
	if len(blocks) == 0 {
		return "  (no blocks)\n"
	}

	var s strings.Builder
	fmt.Fprintf(&s, "Detected %d:\n", len(blocks))
	for i, b := range blocks {
		fmt.Fprintf(&s, "  block %d: %s\n", i, b.String())
	}
	return s.String()
}

func formatVectorFlags(flags uint8) string {
	var parts []string
	if flags&LineFlagInvalid != 0 {
		parts = append(parts, "INVALID")
	}
	if flags&LineFlagIntersectionPresent != 0 {
		parts = append(parts, "INTERSECTION")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "|")
}
