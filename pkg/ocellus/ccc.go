// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"context"
	"encoding/binary"
	"fmt"
)

// Block is one detected color connected component
type Block struct {
	Signature uint16 `cbor:"0,keyasint"`
	X         uint16 `cbor:"1,keyasint"`
	Y         uint16 `cbor:"2,keyasint"`
	Width     uint16 `cbor:"3,keyasint"`
	Height    uint16 `cbor:"4,keyasint"`
	Angle     int16  `cbor:"5,keyasint"` // color codes only
	Index     uint8  `cbor:"6,keyasint"` // tracking index
	Age       uint8  `cbor:"7,keyasint"` // frames tracked, saturates at 255
}

// IsColorCode returns true if the signature is a color code (signatures 1-7
// are plain color signatures)
func (b Block) IsColorCode() bool {
	return b.Signature > MaxSignature
}

// CCC is the color connected components command module. It keeps the block
// list from the last successful query.
type CCC struct {
	session *Session

	// Blocks from the last successful GetBlocks, replaced on every call
	Blocks []Block
}

// NumBlocks returns the number of blocks from the last successful query
func (c *CCC) NumBlocks() int {
	return len(c.Blocks)
}

// GetBlocks requests up to maxBlocks blocks matching the signature bitmap
// (Sig1..Sig7, SigCC, or SigAll). When wait is false and the device has no
// new frame yet, ErrBusy is returned immediately; when wait is true the
// request is repeated until data is ready or ctx is done.
func (c *CCC) GetBlocks(ctx context.Context, sigmap uint8, maxBlocks uint8, wait bool) ([]Block, error) {
	p, err := c.session.transact(ctx, request{
		op:      "get blocks",
		msgType: TypeRequestBlocks,
		payload: []byte{sigmap, maxBlocks},
		expect:  TypeResponseBlocks,
		length:  -1,
		wait:    wait,
	})
	if err != nil {
		return nil, err
	}

	blocks, err := ParseBlocks(p.Payload())
	if err != nil {
		return nil, err
	}
	c.Blocks = blocks
	return blocks, nil
}

// ParseBlocks decodes a packed sequence of 14-byte block records.
//
// Record format (little-endian):
//
//	[SIG(2)][X(2)][Y(2)][W(2)][H(2)][ANGLE(2)][INDEX(1)][AGE(1)]
func ParseBlocks(data []byte) ([]Block, error) {
	if len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: block payload is %d bytes, not a multiple of %d", ErrMalformedPayload, len(data), BlockSize)
	}

	blocks := make([]Block, 0, len(data)/BlockSize)
	for off := 0; off < len(data); off += BlockSize {
		r := data[off : off+BlockSize]
		blocks = append(blocks, Block{
			Signature: binary.LittleEndian.Uint16(r[0:2]),
			X:         binary.LittleEndian.Uint16(r[2:4]),
			Y:         binary.LittleEndian.Uint16(r[4:6]),
			Width:     binary.LittleEndian.Uint16(r[6:8]),
			Height:    binary.LittleEndian.Uint16(r[8:10]),
			Angle:     int16(binary.LittleEndian.Uint16(r[10:12])),
			Index:     r[12],
			Age:       r[13],
		})
	}
	return blocks, nil
}

// AppendBlock appends the wire encoding of b to dst
func AppendBlock(dst []byte, b Block) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, b.Signature)
	dst = binary.LittleEndian.AppendUint16(dst, b.X)
	dst = binary.LittleEndian.AppendUint16(dst, b.Y)
	dst = binary.LittleEndian.AppendUint16(dst, b.Width)
	dst = binary.LittleEndian.AppendUint16(dst, b.Height)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(b.Angle))
	return append(dst, b.Index, b.Age)
}
