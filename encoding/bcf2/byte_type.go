// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bcf2 implements the BCF2 (v2.1) typed binary encoder for variant
// records: the typed-byte primitives, the integer-width selector, the
// header-derived string/contig dictionaries, the per-field encoder
// registry, the site and genotype block writers, the record framer, and an
// indexing wrapper. See spec.md for the format this package writes.
package bcf2

import "math"

// ByteType is the BCF2 typed-element type code (spec.md §3, §6).
type ByteType uint8

const (
	TypeMissing ByteType = 0
	TypeInt8    ByteType = 1
	TypeInt16   ByteType = 2
	TypeInt32   ByteType = 3
	TypeFloat32 ByteType = 5
	TypeChar    ByteType = 7
)

// Width returns the fixed byte width of one value of t. CHAR is
// width-1 but occurs in variable-length groupings (spec.md §3).
func (t ByteType) Width() int {
	switch t {
	case TypeInt8, TypeChar:
		return 1
	case TypeInt16:
		return 2
	case TypeInt32, TypeFloat32:
		return 4
	default:
		return 0
	}
}

// Missing byte patterns, spec.md §3.
const (
	missingInt8  = int8(-128)       // 0x80
	missingInt16 = int16(-32768)    // 0x8000
	missingInt32 = int32(-2147483648) // 0x80000000
	missingChar  = byte(0x07)
)

// missingFloat32Bits is the designated NaN pattern BCF2 uses for a missing
// FLOAT32 value (0x7F800001, the canonical htslib "bcf_float_missing").
const missingFloat32Bits uint32 = 0x7F800001

func missingFloat32() float32 {
	return math.Float32frombits(missingFloat32Bits)
}

// IsMissingFloat32Bits reports whether bits is the BCF2 missing-float pattern.
func IsMissingFloat32Bits(bits uint32) bool { return bits == missingFloat32Bits }
