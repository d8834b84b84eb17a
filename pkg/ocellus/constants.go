// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package ocellus provides a Go client for the Ocellus vision sensor serial protocol.
//
// The sensor answers framed request/response packets over UART, SPI, I2C or a
// tunnelled byte stream. This package provides the packet engine (sync search,
// framing and checksum validation), the transaction retry policy, and typed
// command modules for color blocks, line features, video pixels and actuators.
//
// A Session is not safe for concurrent use. Serialize access externally.
package ocellus

import "time"

// Sync markers, little-endian on the wire
const (
	SyncChecksum   = 0xc1af
	SyncNoChecksum = 0xc1ae
)

// Buffer and header sizes
const (
	BufferSize         = 0x104
	MaxPayloadSize     = 255
	SendHeaderSize     = 4
	ChecksumHeaderSize = 4 // type, length, checksum (after sync)
	PlainHeaderSize    = 2 // type, length (after sync)
	MaxProgramName     = 33
)

// Generic message types
const (
	TypeResponseResult     = 0x01
	TypeRequestChangeProg  = 0x02
	TypeResponseError      = 0x03
	TypeRequestResolution  = 0x0c
	TypeResponseResolution = 0x0d
	TypeRequestVersion     = 0x0e
	TypeResponseVersion    = 0x0f
	TypeRequestBrightness  = 0x10
	TypeRequestServo       = 0x12
	TypeRequestLED         = 0x14
	TypeRequestLamp        = 0x16
	TypeRequestFPS         = 0x18
)

// Color connected components message types
const (
	TypeRequestBlocks  = 0x20
	TypeResponseBlocks = 0x21
)

// Line tracking message types
const (
	TypeRequestLineFeatures      = 0x30
	TypeResponseLineFeatures     = 0x31
	TypeRequestLineMode          = 0x36
	TypeRequestLineVector        = 0x38
	TypeRequestNextTurnAngle     = 0x3a
	TypeRequestDefaultTurnAngle  = 0x3c
	TypeRequestLineReverseVector = 0x3e
)

// Video message types
const (
	TypeRequestRGB = 0x70
)

// Result codes reported by the device
const (
	ResultOK             int32 = 0
	ResultError          int32 = -1
	ResultBusy           int32 = -2
	ResultChecksumError  int32 = -3
	ResultTimeout        int32 = -4
	ResultButtonOverride int32 = -5
	ResultProgChanging   int32 = -6
)

// Signature bitmap values for block requests
const (
	Sig1   = 0x01
	Sig2   = 0x02
	Sig3   = 0x04
	Sig4   = 0x08
	Sig5   = 0x10
	Sig6   = 0x20
	Sig7   = 0x40
	SigCC  = 0x80 // color codes
	SigAll = 0xff

	MaxSignature = 7
)

// Line feature request scopes
const (
	LineMainFeatures = 0x00
	LineAllFeatures  = 0x01
)

// Line feature tags and selection mask bits
const (
	FeatureVector       = 0x01
	FeatureIntersection = 0x02
	FeatureBarcode      = 0x04
	FeatureAll          = FeatureVector | FeatureIntersection | FeatureBarcode
)

// Line tracking modes
const (
	LineModeTurnDelayed         = 0x01
	LineModeManualSelectVector  = 0x02
	LineModeWhiteLine           = 0x80
	LineFlagInvalid             = 0x02
	LineFlagIntersectionPresent = 0x04
	MaxIntersectionLines        = 6
)

// Record sizes on the wire
const (
	BlockSize        = 14
	VectorSize       = 6
	IntersectionSize = 4 + MaxIntersectionLines*4
	BarcodeSize      = 4
	VersionSize      = 16
	ResolutionSize   = 4
	ResultSize       = 4
)

// Known program names
const (
	ProgramColorConnectedComponents = "color_connected_components"
	ProgramLineTracking             = "line_tracking"
	ProgramVideo                    = "video"
)

// Default timing
const (
	DefaultBusyDelay        = 500 * time.Microsecond
	DefaultProgramDelay     = 1 * time.Millisecond
	DefaultSyncDelay        = 25 * time.Microsecond
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultHandshakeDelay   = 5 * time.Millisecond
)

// Sync search bounds: one initial window plus syncRetries windows of syncWindow reads
const (
	syncWindow  = 4
	syncRetries = 4
)
