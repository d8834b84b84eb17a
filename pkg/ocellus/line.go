// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"context"
	"encoding/binary"
)

// Vector is a detected line segment from (X0,Y0) tail to (X1,Y1) head
type Vector struct {
	X0    uint8 `cbor:"0,keyasint"`
	Y0    uint8 `cbor:"1,keyasint"`
	X1    uint8 `cbor:"2,keyasint"`
	Y1    uint8 `cbor:"3,keyasint"`
	Index uint8 `cbor:"4,keyasint"`
	Flags uint8 `cbor:"5,keyasint"`
}

// IntersectionLine is one branch leaving an intersection
type IntersectionLine struct {
	Index uint8 `cbor:"0,keyasint"`
	Angle int16 `cbor:"1,keyasint"`
}

// Intersection is a point where several line branches meet
type Intersection struct {
	X     uint8              `cbor:"0,keyasint"`
	Y     uint8              `cbor:"1,keyasint"`
	Lines []IntersectionLine `cbor:"2,keyasint"`
}

// Barcode is a detected line-following barcode
type Barcode struct {
	X     uint8 `cbor:"0,keyasint"`
	Y     uint8 `cbor:"1,keyasint"`
	Flags uint8 `cbor:"2,keyasint"`
	Code  uint8 `cbor:"3,keyasint"`
}

// Features holds one line-features response. Mask has a Feature* bit set for
// every group that was parsed.
type Features struct {
	Mask          uint8          `cbor:"0,keyasint"`
	Vectors       []Vector       `cbor:"1,keyasint"`
	Intersections []Intersection `cbor:"2,keyasint"`
	Barcodes      []Barcode      `cbor:"3,keyasint"`
}

// Line is the line tracking command module. It keeps the features from the
// last successful query.
type Line struct {
	session *Session

	Vectors       []Vector
	Intersections []Intersection
	Barcodes      []Barcode
}

// GetFeatures requests line features. scope is LineMainFeatures or
// LineAllFeatures; features is a mask of FeatureVector, FeatureIntersection
// and FeatureBarcode. Busy handling follows GetBlocks.
func (l *Line) GetFeatures(ctx context.Context, scope, features uint8, wait bool) (*Features, error) {
	p, err := l.session.transact(ctx, request{
		op:      "get line features",
		msgType: TypeRequestLineFeatures,
		payload: []byte{scope, features},
		expect:  TypeResponseLineFeatures,
		length:  -1,
		wait:    wait,
	})
	if err != nil {
		return nil, err
	}

	f := ParseFeatures(p.Payload())
	l.Vectors = f.Vectors
	l.Intersections = f.Intersections
	l.Barcodes = f.Barcodes
	return f, nil
}

// GetMainFeatures requests the primary vector, next intersection and barcodes
func (l *Line) GetMainFeatures(ctx context.Context, features uint8, wait bool) (*Features, error) {
	return l.GetFeatures(ctx, LineMainFeatures, features, wait)
}

// GetAllFeatures requests every vector, intersection and barcode in view
func (l *Line) GetAllFeatures(ctx context.Context, features uint8, wait bool) (*Features, error) {
	return l.GetFeatures(ctx, LineAllFeatures, features, wait)
}

// SetMode sets the line tracking mode bits (LineModeTurnDelayed,
// LineModeManualSelectVector, LineModeWhiteLine)
func (l *Line) SetMode(ctx context.Context, mode uint8) error {
	_, err := l.session.command(ctx, "set line mode", TypeRequestLineMode, []byte{mode})
	return err
}

// SetNextTurn sets the turn angle taken at the next intersection, in degrees
// (0 straight, 90 left, -90 right)
func (l *Line) SetNextTurn(ctx context.Context, angle int16) error {
	_, err := l.session.command(ctx, "set next turn angle", TypeRequestNextTurnAngle, binary.LittleEndian.AppendUint16(nil, uint16(angle)))
	return err
}

// SetDefaultTurn sets the turn angle used when no next turn is set
func (l *Line) SetDefaultTurn(ctx context.Context, angle int16) error {
	_, err := l.session.command(ctx, "set default turn angle", TypeRequestDefaultTurnAngle, binary.LittleEndian.AppendUint16(nil, uint16(angle)))
	return err
}

// SetVector selects the primary vector by index (manual select mode)
func (l *Line) SetVector(ctx context.Context, index uint8) error {
	_, err := l.session.command(ctx, "select vector", TypeRequestLineVector, []byte{index})
	return err
}

// ReverseVector swaps the head and tail of the primary vector
func (l *Line) ReverseVector(ctx context.Context) error {
	_, err := l.session.command(ctx, "reverse vector", TypeRequestLineReverseVector, nil)
	return err
}

// ParseFeatures decodes a sequence of tagged feature groups. Each group is
// [TYPE(1)][SIZE(1)][records...]. Parsing stops at an unknown tag, at a size
// that is not a multiple of the record size, or at a truncated group; groups
// parsed before that point are kept. A later group of the same type replaces
// an earlier one.
func ParseFeatures(data []byte) *Features {
	f := &Features{}

	for off := 0; off+2 <= len(data); {
		ftype, fsize := data[off], int(data[off+1])
		body := data[off+2:]
		if fsize > len(body) {
			break
		}
		body = body[:fsize]

		switch ftype {
		case FeatureVector:
			if fsize%VectorSize != 0 {
				return f
			}
			f.Vectors = parseVectors(body)
		case FeatureIntersection:
			if fsize%IntersectionSize != 0 {
				return f
			}
			f.Intersections = parseIntersections(body)
		case FeatureBarcode:
			if fsize%BarcodeSize != 0 {
				return f
			}
			f.Barcodes = parseBarcodes(body)
		default:
			return f
		}

		f.Mask |= ftype
		off += fsize + 2
	}

	return f
}

func parseVectors(data []byte) []Vector {
	vs := make([]Vector, 0, len(data)/VectorSize)
	for off := 0; off < len(data); off += VectorSize {
		r := data[off : off+VectorSize]
		vs = append(vs, Vector{X0: r[0], Y0: r[1], X1: r[2], Y1: r[3], Index: r[4], Flags: r[5]})
	}
	return vs
}

func parseIntersections(data []byte) []Intersection {
	is := make([]Intersection, 0, len(data)/IntersectionSize)
	for off := 0; off < len(data); off += IntersectionSize {
		r := data[off : off+IntersectionSize]
		n := int(r[2])
		if n > MaxIntersectionLines {
			n = MaxIntersectionLines
		}
		in := Intersection{X: r[0], Y: r[1], Lines: make([]IntersectionLine, n)}
		for i := 0; i < n; i++ {
			lr := r[4+i*4 : 8+i*4]
			in.Lines[i] = IntersectionLine{
				Index: lr[0],
				Angle: int16(binary.LittleEndian.Uint16(lr[2:4])),
			}
		}
		is = append(is, in)
	}
	return is
}

func parseBarcodes(data []byte) []Barcode {
	bs := make([]Barcode, 0, len(data)/BarcodeSize)
	for off := 0; off < len(data); off += BarcodeSize {
		r := data[off : off+BarcodeSize]
		bs = append(bs, Barcode{X: r[0], Y: r[1], Flags: r[2], Code: r[3]})
	}
	return bs
}
