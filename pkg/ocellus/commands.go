// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
)

// Version describes the device hardware and firmware
type Version struct {
	Hardware      uint16 `cbor:"0,keyasint"`
	FirmwareMajor uint8  `cbor:"1,keyasint"`
	FirmwareMinor uint8  `cbor:"2,keyasint"`
	FirmwareBuild uint16 `cbor:"3,keyasint"`
	FirmwareType  string `cbor:"4,keyasint"`
}

// Firmware returns the firmware version as major.minor.build
func (v *Version) Firmware() string {
	return fmt.Sprintf("%d.%d.%d", v.FirmwareMajor, v.FirmwareMinor, v.FirmwareBuild)
}

func (v *Version) String() string {
	return fmt.Sprintf("hardware ver: 0x%x firmware ver: %s %s", v.Hardware, v.Firmware(), v.FirmwareType)
}

// Resolution is the frame size of the running program
type Resolution struct {
	Width  uint16 `cbor:"0,keyasint"`
	Height uint16 `cbor:"1,keyasint"`
}

// ParseVersion decodes a version response payload.
//
// Data format (16 bytes):
//
//	[HARDWARE(2)][MAJOR(1)][MINOR(1)][BUILD(2)][TYPE(10)]
func ParseVersion(data []byte) (*Version, error) {
	if len(data) != VersionSize {
		return nil, fmt.Errorf("%w: version payload is %d bytes, expected %d", ErrMalformedPayload, len(data), VersionSize)
	}

	name := data[6:16]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	return &Version{
		Hardware:      binary.LittleEndian.Uint16(data[0:2]),
		FirmwareMajor: data[2],
		FirmwareMinor: data[3],
		FirmwareBuild: binary.LittleEndian.Uint16(data[4:6]),
		FirmwareType:  string(name),
	}, nil
}

// ParseResolution decodes a resolution response payload.
//
// Data format (4 bytes):
//
//	[WIDTH(2)][HEIGHT(2)]
func ParseResolution(data []byte) (Resolution, error) {
	if len(data) != ResolutionSize {
		return Resolution{}, fmt.Errorf("%w: resolution payload is %d bytes, expected %d", ErrMalformedPayload, len(data), ResolutionSize)
	}
	return Resolution{
		Width:  binary.LittleEndian.Uint16(data[0:2]),
		Height: binary.LittleEndian.Uint16(data[2:4]),
	}, nil
}

// GetVersion queries the hardware and firmware version and caches it.
// A busy device yields ErrBusy without retrying.
func (s *Session) GetVersion(ctx context.Context) (*Version, error) {
	p, err := s.transact(ctx, request{
		op:      "get version",
		msgType: TypeRequestVersion,
		expect:  TypeResponseVersion,
		length:  VersionSize,
	})
	if err != nil {
		return nil, err
	}

	v, err := ParseVersion(p.Payload())
	if err != nil {
		return nil, err
	}
	s.version = v
	return v, nil
}

// GetResolution queries the frame resolution of the running program and caches it
func (s *Session) GetResolution(ctx context.Context) (Resolution, error) {
	p, err := s.transact(ctx, request{
		op:      "get resolution",
		msgType: TypeRequestResolution,
		payload: []byte{0},
		expect:  TypeResponseResolution,
		length:  ResolutionSize,
	})
	if err != nil {
		return Resolution{}, err
	}

	r, err := ParseResolution(p.Payload())
	if err != nil {
		return Resolution{}, err
	}
	s.resolution = r
	s.log.Debug().Uint16("width", r.Width).Uint16("height", r.Height).Msg("resolution updated")
	return r, nil
}

// ChangeProgram switches the running program and polls until the device
// confirms with a positive result. The cached resolution is refreshed since it
// depends on the program. Bound the wait with ctx.
func (s *Session) ChangeProgram(ctx context.Context, name string) error {
	if name == "" || len(name) >= MaxProgramName {
		return fmt.Errorf("%w: %q (1-%d bytes)", ErrProgramName, name, MaxProgramName-1)
	}

	var payload [MaxProgramName]byte
	copy(payload[:], name)

	for attempt := 1; ; attempt++ {
		p, err := s.transact(ctx, request{
			op:      "change program",
			msgType: TypeRequestChangeProg,
			payload: payload[:],
			expect:  TypeResponseResult,
			length:  ResultSize,
			wait:    true,
		})
		if err != nil {
			return err
		}

		res := resultCode(p)
		if res > 0 {
			break
		}
		if res < 0 && res != ResultBusy && res != ResultProgChanging {
			err := &ProtocolError{Op: "change program", Code: res}
			s.stats.recordError(err)
			return err
		}

		s.stats.progChangeRetries.Add(1)
		s.log.Debug().Str("program", name).Int("attempt", attempt).Int32("result", res).Msg("waiting for program change")
		if err := sleep(ctx, s.config.ProgramDelay); err != nil {
			return err
		}
	}

	if _, err := s.GetResolution(ctx); err != nil {
		return fmt.Errorf("refresh resolution: %w", err)
	}
	return nil
}

// SetServos sets the pan (s0) and tilt (s1) servo positions (0-1000)
func (s *Session) SetServos(ctx context.Context, s0, s1 uint16) error {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], s0)
	binary.LittleEndian.PutUint16(payload[2:4], s1)
	_, err := s.command(ctx, "set servos", TypeRequestServo, payload)
	return err
}

// SetCameraBrightness sets the camera exposure brightness
func (s *Session) SetCameraBrightness(ctx context.Context, level uint8) error {
	_, err := s.command(ctx, "set camera brightness", TypeRequestBrightness, []byte{level})
	return err
}

// SetLED sets the RGB LED color, overriding the detection feedback color
func (s *Session) SetLED(ctx context.Context, r, g, b uint8) error {
	_, err := s.command(ctx, "set led", TypeRequestLED, []byte{r, g, b})
	return err
}

// SetLamp switches the upper (white) and lower (RGB) lamps; nonzero is on
func (s *Session) SetLamp(ctx context.Context, upper, lower uint8) error {
	_, err := s.command(ctx, "set lamp", TypeRequestLamp, []byte{upper, lower})
	return err
}

// GetFPS returns the device's current frame rate
func (s *Session) GetFPS(ctx context.Context) (int32, error) {
	return s.command(ctx, "get fps", TypeRequestFPS, nil)
}
