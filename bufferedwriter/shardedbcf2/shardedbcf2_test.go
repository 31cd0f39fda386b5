// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package shardedbcf2

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bcf2/variant"
)

func header() *variant.VariantHeader {
	return &variant.VariantHeader{
		ContigList: []variant.ContigDecl{{ID: "chr1", Length: 1000}},
	}
}

func record(start int64) *variant.VariantRecord {
	return &variant.VariantRecord{
		ContigID:    "chr1",
		StartPos:    start,
		EndPos:      start,
		IDField:     ".",
		AllelesList: []variant.Allele{{Bases: "A"}, {Bases: "G"}},
		Filter:      variant.Filters{State: variant.FilterPassed},
	}
}

func TestShardedWriterReassemblesShardsInOrder(t *testing.T) {
	var out bytes.Buffer
	sw, err := NewShardedWriter(&out, 4, header(), false)
	require.NoError(t, err)

	// Shard 1 finishes encoding before shard 0, but must still land after
	// it in the output: the reassembly order is shard-number order, not
	// completion order.
	c1, err := sw.GetCompressor()
	require.NoError(t, err)
	c1.StartShard(1)
	require.NoError(t, c1.AddRecord(record(200)))
	require.NoError(t, c1.CloseShard())

	c0, err := sw.GetCompressor()
	require.NoError(t, err)
	c0.StartShard(0)
	require.NoError(t, c0.AddRecord(record(100)))
	require.NoError(t, c0.CloseShard())

	require.NoError(t, sw.Close())

	// The output is: header frame, then shard 0's frame, then shard 1's
	// frame. Walk the u32-length-prefixed frames and recover each record's
	// POS to confirm ordering.
	buf := out.Bytes()
	assert.Equal(t, "BCF", string(buf[0:3]))

	headerLen := binary.LittleEndian.Uint32(buf[5:9])
	offset := 9 + int(headerLen)

	readFramePos := func() int32 {
		siteLen := binary.LittleEndian.Uint32(buf[offset : offset+4])
		gtLen := binary.LittleEndian.Uint32(buf[offset+4 : offset+8])
		site := buf[offset+8 : offset+8+int(siteLen)]
		pos := int32(binary.LittleEndian.Uint32(site[4:8]))
		offset += 8 + int(siteLen) + int(gtLen)
		return pos
	}
	pos0 := readFramePos()
	pos1 := readFramePos()
	assert.Equal(t, int32(99), pos0)  // 1-based 100 -> 0-based 99
	assert.Equal(t, int32(199), pos1) // 1-based 200 -> 0-based 199
}

func TestCompressorStartShardTwiceWithoutCloseIsProgrammerError(t *testing.T) {
	var out bytes.Buffer
	sw, err := NewShardedWriter(&out, 4, header(), false)
	require.NoError(t, err)
	c, err := sw.GetCompressor()
	require.NoError(t, err)
	c.StartShard(0)
	assert.Panics(t, func() { c.StartShard(1) })
	require.NoError(t, c.CloseShard())
	require.NoError(t, sw.Close())
}

func TestShardedWriterSkipGenotypesEmitsZeroLengthGTBlocks(t *testing.T) {
	var out bytes.Buffer
	h := &variant.VariantHeader{
		ContigList:  []variant.ContigDecl{{ID: "chr1", Length: 1000}},
		Format:      []variant.FieldDecl{{ID: "GT", Kind: variant.KindString, Cardinality: variant.CardinalityFixed, Number: 1}},
		SampleNames: []string{"S1"},
	}
	sw, err := NewShardedWriter(&out, 2, h, true)
	require.NoError(t, err)
	c, err := sw.GetCompressor()
	require.NoError(t, err)
	c.StartShard(0)
	r := record(100)
	r.GTView = variant.GenotypesView{Decoded: map[string]variant.Genotype{"S1": {Ploidy: 2, Alleles: []int{0, 1}}}, Order: []string{"S1"}}
	require.NoError(t, c.AddRecord(r))
	require.NoError(t, c.CloseShard())
	require.NoError(t, sw.Close())

	buf := out.Bytes()
	headerLen := binary.LittleEndian.Uint32(buf[5:9])
	offset := 9 + int(headerLen)
	gtLen := binary.LittleEndian.Uint32(buf[offset+4 : offset+8])
	assert.Equal(t, uint32(0), gtLen)
}
