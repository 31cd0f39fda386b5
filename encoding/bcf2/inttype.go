// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

// narrowestType implements the C2 "Integer-Type Selector" of spec.md §4.2.
// It returns the narrowest BCF2 integer width whose representable range
// contains x and excludes x's missing pattern; values equal to a missing
// pattern are promoted to the next wider width.
func narrowestType(x int32) ByteType {
	if x >= -127 && x <= 127 {
		return TypeInt8
	}
	if x >= -32767 && x <= 32767 {
		return TypeInt16
	}
	return TypeInt32
}

// promote returns the wider of two integer ByteTypes.
func promote(a, b ByteType) ByteType {
	if rank(a) > rank(b) {
		return a
	}
	return b
}

func rank(t ByteType) int {
	switch t {
	case TypeInt8:
		return 0
	case TypeInt16:
		return 1
	case TypeInt32:
		return 2
	default:
		return -1
	}
}

// widestOf scans vs and returns the widest ByteType needed to represent
// every element (vs carries no missing markers; each value counts), with early
// termination once TypeInt32 is reached (spec.md §4.2: "with early
// termination when INT32 is reached").
func widestOf(vs []int32) ByteType {
	t := TypeInt8
	for _, v := range vs {
		t = promote(t, narrowestType(v))
		if t == TypeInt32 {
			break
		}
	}
	return t
}
