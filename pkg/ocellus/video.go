// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"context"
	"encoding/binary"
	"fmt"
)

// RGB is a pixel color
type RGB struct {
	R uint8 `cbor:"0,keyasint"`
	G uint8 `cbor:"1,keyasint"`
	B uint8 `cbor:"2,keyasint"`
}

func (c RGB) String() string {
	return fmt.Sprintf("r: %d g: %d b: %d", c.R, c.G, c.B)
}

// Video is the video command module. The device must run the video program.
type Video struct {
	session *Session
}

// GetRGB returns the averaged color around pixel (x, y). When saturate is set
// the color is scaled so its largest component is 255.
func (v *Video) GetRGB(ctx context.Context, x, y uint16, saturate bool) (RGB, error) {
	payload := make([]byte, 5)
	binary.LittleEndian.PutUint16(payload[0:2], x)
	binary.LittleEndian.PutUint16(payload[2:4], y)
	if saturate {
		payload[4] = 1
	}

	res, err := v.session.command(ctx, "get rgb", TypeRequestRGB, payload)
	if err != nil {
		return RGB{}, err
	}

	return RGB{
		R: uint8(res >> 16),
		G: uint8(res >> 8),
		B: uint8(res),
	}, nil
}
