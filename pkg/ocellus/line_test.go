// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"context"
	"encoding/binary"
	"testing"
)

func featureGroup(tag uint8, records ...[]byte) []byte {
	var body []byte
	for _, r := range records {
		body = append(body, r...)
	}
	return append([]byte{tag, uint8(len(body))}, body...)
}

func intersectionRecord(x, y uint8, lines ...IntersectionLine) []byte {
	r := make([]byte, IntersectionSize)
	r[0], r[1], r[2] = x, y, uint8(len(lines))
	for i, l := range lines {
		r[4+i*4] = l.Index
		binary.LittleEndian.PutUint16(r[6+i*4:], uint16(l.Angle))
	}
	return r
}

// ============================================================
// ParseFeatures Tests
// ============================================================

func TestParseFeatures_AllGroups(t *testing.T) {
	data := featureGroup(FeatureVector, []byte{10, 20, 30, 40, 1, 0}, []byte{5, 6, 7, 8, 2, LineFlagIntersectionPresent})
	data = append(data, featureGroup(FeatureIntersection, intersectionRecord(39, 25,
		IntersectionLine{Index: 1, Angle: 0},
		IntersectionLine{Index: 3, Angle: -90},
		IntersectionLine{Index: 5, Angle: 90},
	))...)
	data = append(data, featureGroup(FeatureBarcode, []byte{12, 34, 0, 9})...)

	f := ParseFeatures(data)
	if f.Mask != FeatureAll {
		t.Errorf("Mask = 0x%02X, want 0x%02X", f.Mask, FeatureAll)
	}
	if len(f.Vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(f.Vectors))
	}
	if f.Vectors[0] != (Vector{X0: 10, Y0: 20, X1: 30, Y1: 40, Index: 1}) {
		t.Errorf("vector 0 = %+v", f.Vectors[0])
	}
	if len(f.Intersections) != 1 || len(f.Intersections[0].Lines) != 3 {
		t.Fatalf("intersections = %+v", f.Intersections)
	}
	if f.Intersections[0].Lines[1] != (IntersectionLine{Index: 3, Angle: -90}) {
		t.Errorf("intersection line 1 = %+v", f.Intersections[0].Lines[1])
	}
	if len(f.Barcodes) != 1 || f.Barcodes[0].Code != 9 {
		t.Errorf("barcodes = %+v", f.Barcodes)
	}
}

func TestParseFeatures_StopsAtUnknownTag(t *testing.T) {
	data := featureGroup(FeatureVector, []byte{1, 2, 3, 4, 0, 0})
	data = append(data, featureGroup(0x40, []byte{0xde, 0xad})...)
	data = append(data, featureGroup(FeatureBarcode, []byte{1, 1, 0, 3})...)

	f := ParseFeatures(data)
	if f.Mask != FeatureVector {
		t.Errorf("Mask = 0x%02X, want 0x%02X", f.Mask, FeatureVector)
	}
	if len(f.Vectors) != 1 {
		t.Errorf("got %d vectors, want 1", len(f.Vectors))
	}
	if len(f.Barcodes) != 0 {
		t.Error("groups after an unknown tag should not be parsed")
	}
}

func TestParseFeatures_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		mask uint8
	}{
		{"empty", nil, 0},
		{"lone tag", []byte{FeatureVector}, 0},
		{"truncated group", []byte{FeatureVector, 12, 1, 2, 3, 4, 5, 6}, 0},
		{"size not a multiple", []byte{FeatureBarcode, 3, 1, 2, 3}, 0},
		{"bad group after good", append(featureGroup(FeatureBarcode, []byte{1, 2, 3, 4}), FeatureVector, 5, 1, 2, 3, 4, 5), FeatureBarcode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseFeatures(tt.data)
			if f.Mask != tt.mask {
				t.Errorf("Mask = 0x%02X, want 0x%02X", f.Mask, tt.mask)
			}
		})
	}
}

func TestParseFeatures_LaterGroupReplaces(t *testing.T) {
	data := featureGroup(FeatureBarcode, []byte{1, 1, 0, 1}, []byte{2, 2, 0, 2})
	data = append(data, featureGroup(FeatureBarcode, []byte{3, 3, 0, 3})...)

	f := ParseFeatures(data)
	if len(f.Barcodes) != 1 || f.Barcodes[0].Code != 3 {
		t.Errorf("barcodes = %+v, want only the last group", f.Barcodes)
	}
}

func TestParseFeatures_IntersectionClamp(t *testing.T) {
	r := intersectionRecord(1, 2)
	r[2] = 9 // more branches than the record holds

	f := ParseFeatures(featureGroup(FeatureIntersection, r))
	if len(f.Intersections) != 1 {
		t.Fatalf("got %d intersections, want 1", len(f.Intersections))
	}
	if n := len(f.Intersections[0].Lines); n != MaxIntersectionLines {
		t.Errorf("got %d lines, want %d", n, MaxIntersectionLines)
	}
}

// ============================================================
// Line Module Tests
// ============================================================

func TestGetMainFeatures(t *testing.T) {
	s, dev := newTestSession()
	dev.Respond = Script(buildFrame(t, TypeResponseLineFeatures,
		featureGroup(FeatureVector, []byte{39, 51, 40, 0, 0, 0})))

	f, err := s.Line.GetMainFeatures(context.Background(), FeatureAll, false)
	if err != nil {
		t.Fatalf("GetMainFeatures failed: %v", err)
	}
	if len(f.Vectors) != 1 || len(s.Line.Vectors) != 1 {
		t.Errorf("vectors = %+v (stored %+v)", f.Vectors, s.Line.Vectors)
	}

	payload := dev.sent[0][SendHeaderSize:]
	if payload[0] != LineMainFeatures || payload[1] != FeatureAll {
		t.Errorf("request payload = % x", payload)
	}
}

func TestGetAllFeatures_Empty(t *testing.T) {
	s, dev := newTestSession()
	dev.Respond = Script(buildFrame(t, TypeResponseLineFeatures, nil))

	f, err := s.Line.GetAllFeatures(context.Background(), FeatureVector, false)
	if err != nil {
		t.Fatalf("GetAllFeatures failed: %v", err)
	}
	if f.Mask != 0 || len(s.Line.Vectors) != 0 {
		t.Errorf("features = %+v, want none", f)
	}
	if dev.sent[0][SendHeaderSize] != LineAllFeatures {
		t.Errorf("scope = %d, want %d", dev.sent[0][SendHeaderSize], LineAllFeatures)
	}
}
