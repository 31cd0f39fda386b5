// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNarrowestType(t *testing.T) {
	tests := []struct {
		v    int32
		want ByteType
	}{
		{0, TypeInt8},
		{127, TypeInt8},
		{-127, TypeInt8},
		{-128, TypeInt16}, // INT8's own missing pattern: must promote
		{128, TypeInt16},
		{32767, TypeInt16},
		{-32767, TypeInt16},
		{-32768, TypeInt32}, // INT16's own missing pattern: must promote
		{32768, TypeInt32},
		{2147483647, TypeInt32},
		{-2147483647, TypeInt32},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, narrowestType(tc.v), "narrowestType(%d)", tc.v)
	}
}

func TestPromote(t *testing.T) {
	assert.Equal(t, TypeInt16, promote(TypeInt8, TypeInt16))
	assert.Equal(t, TypeInt16, promote(TypeInt16, TypeInt8))
	assert.Equal(t, TypeInt32, promote(TypeInt16, TypeInt32))
	assert.Equal(t, TypeInt8, promote(TypeInt8, TypeInt8))
}

func TestWidestOf(t *testing.T) {
	assert.Equal(t, TypeInt8, widestOf([]int32{1, 2, 3}))
	assert.Equal(t, TypeInt16, widestOf([]int32{1, 200, 3}))
	assert.Equal(t, TypeInt32, widestOf([]int32{1, 40000, 3}))
	assert.Equal(t, TypeInt8, widestOf(nil))

	// Early termination at INT32 must not panic on a huge slice with a
	// wide value up front.
	vs := make([]int32, 10000)
	vs[0] = 1 << 30
	assert.Equal(t, TypeInt32, widestOf(vs))
}
