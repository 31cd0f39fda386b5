// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import (
	"bytes"
	"encoding/binary"
	"math"
)

// typedWriter accumulates BCF2 typed and raw primitive values into a
// reusable buffer. It is the C1 "Typed-Byte Encoder" of spec.md §4.1,
// generalized from the teacher's fixed-field binaryWriter (marshal.go) to
// BCF2's self-describing typed values.
//
// A typedWriter is owned exclusively by one encoder, which reuses it across
// records, and is never shared across goroutines (spec.md §3 "Typed buffer").
type typedWriter struct {
	buf   bytes.Buffer
	strat [4]byte
}

// writeUint8 writes a single raw byte.
func (w *typedWriter) writeUint8(v uint8) {
	w.strat[0] = v
	w.buf.Write(w.strat[:1])
}

// writeUint16 writes v little-endian.
func (w *typedWriter) writeUint16(v uint16) {
	binary.LittleEndian.PutUint16(w.strat[:2], v)
	w.buf.Write(w.strat[:2])
}

// writeInt32 writes v little-endian.
func (w *typedWriter) writeInt32(v int32) {
	binary.LittleEndian.PutUint32(w.strat[:4], uint32(v))
	w.buf.Write(w.strat[:4])
}

// writeUint32 writes v little-endian.
func (w *typedWriter) writeUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.strat[:4], v)
	w.buf.Write(w.strat[:4])
}

// writeFloat32 writes v as IEEE-754 little-endian.
func (w *typedWriter) writeFloat32(v float32) {
	w.writeUint32(math.Float32bits(v))
}

// writeTypeDescriptor writes one byte encoding (min(count,15)<<4)|typeCode.
// If count >= 15, the descriptor is followed by the true count as a typed
// scalar integer (spec.md §4.1, §6).
func (w *typedWriter) writeTypeDescriptor(count int, t ByteType) {
	n := count
	if n > 15 {
		n = 15
	}
	w.writeUint8(byte(n<<4) | byte(t))
	if count >= 15 {
		w.writeTypedScalarInt(int32(count))
	}
}

// writeTypedScalarInt writes a single integer value as a self-describing
// typed scalar, choosing the narrowest width via narrowestType. Used for
// overflow counts (spec.md §4.1) and dictionary-offset field keys
// (spec.md §4.4).
func (w *typedWriter) writeTypedScalarInt(v int32) {
	t := narrowestType(v)
	w.writeTypeDescriptor(1, t)
	w.writeRawValue(int64(v), t)
}

// writeRawValue writes one integer scalar little-endian in the given
// integer width (INT8, INT16 or INT32); any other type, FLOAT32 included,
// panics (FLOAT32 values are written with writeFloat32). The caller is
// responsible for picking t appropriately; writeRawValue does not range
// check.
func (w *typedWriter) writeRawValue(v int64, t ByteType) {
	switch t {
	case TypeInt8:
		w.writeUint8(byte(int8(v)))
	case TypeInt16:
		w.writeUint16(uint16(int16(v)))
	case TypeInt32:
		w.writeInt32(int32(v))
	default:
		panic("bcf2: writeRawValue called with non-integer type")
	}
}

// writeMissingValue writes one value-width missing pattern for t.
func (w *typedWriter) writeMissingValue(t ByteType) {
	switch t {
	case TypeInt8:
		w.writeUint8(byte(missingInt8))
	case TypeInt16:
		w.writeUint16(uint16(missingInt16))
	case TypeInt32:
		w.writeInt32(missingInt32)
	case TypeFloat32:
		w.writeFloat32(missingFloat32())
	case TypeChar:
		w.writeUint8(missingChar)
	default:
		panic("bcf2: writeMissingValue called with non-value type")
	}
}

// writeTypedMissingScalar writes a single-element typed descriptor whose
// one value is the missing pattern for t (used for absent declared INFO/
// FORMAT fields, spec.md §4.5 step 10, and absent FILTER, step 9).
func (w *typedWriter) writeTypedMissingScalar(t ByteType) {
	w.writeTypeDescriptor(1, t)
	w.writeMissingValue(t)
}

// writeTypedIntVector writes a typed descriptor for len(vs), then each
// element, widening to t (which must be at least as wide as narrowestType of
// every element).
func (w *typedWriter) writeTypedIntVector(vs []int32, t ByteType) {
	w.writeTypeDescriptor(len(vs), t)
	for _, v := range vs {
		w.writeRawValue(int64(v), t)
	}
}

// writeTypedFloatVector writes a typed FLOAT32 descriptor then each element.
func (w *typedWriter) writeTypedFloatVector(vs []float32) {
	w.writeTypeDescriptor(len(vs), TypeFloat32)
	for _, v := range vs {
		w.writeFloat32(v)
	}
}

// writeRawString writes min(len(s), targetLen) UTF-8 bytes then pads with
// the CHAR missing-filler to reach targetLen (spec.md §4.1).
func (w *typedWriter) writeRawString(s string, targetLen int) {
	n := len(s)
	if n > targetLen {
		n = targetLen
	}
	w.buf.WriteString(s[:n])
	for i := n; i < targetLen; i++ {
		w.writeUint8(missingChar)
	}
}

// writeTypedString writes a CHAR-typed descriptor for len(s) followed by s's
// raw bytes (no padding: targetLen == len(s)). Used for ID, alleles, and
// FORMAT/INFO string values whose width is the value's own length.
func (w *typedWriter) writeTypedString(s string) {
	w.writeTypeDescriptor(len(s), TypeChar)
	w.buf.WriteString(s)
}

// extractAndReset returns a newly allocated copy of the accumulated bytes,
// owned by the caller, and empties the buffer while keeping its storage for
// reuse. The copy costs time linear in the number of bytes; it is not O(1).
func (w *typedWriter) extractAndReset() []byte {
	b := make([]byte, w.buf.Len())
	copy(b, w.buf.Bytes())
	w.buf.Reset()
	return b
}

// len reports the number of bytes accumulated so far.
func (w *typedWriter) len() int { return w.buf.Len() }
