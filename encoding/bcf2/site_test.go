// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bcf2/variant"
)

func TestWriteFilterBlockStates(t *testing.T) {
	h := basicHeader()
	sd, _, err := buildDictionaries(h)
	require.NoError(t, err)

	var w typedWriter
	require.NoError(t, writeFilterBlock(&w, sd, variant.Filters{State: variant.FilterUnfiltered}))
	got := w.extractAndReset()
	assert.Equal(t, byte(1<<4)|byte(TypeInt8), got[0])
	assert.Equal(t, missingInt8, int8(got[1]))

	require.NoError(t, writeFilterBlock(&w, sd, variant.Filters{State: variant.FilterPassed}))
	got = w.extractAndReset()
	passOff, err := sd.lookup("PASS")
	require.NoError(t, err)
	assert.Equal(t, int8(passOff), int8(got[1]))

	require.NoError(t, writeFilterBlock(&w, sd, variant.Filters{State: variant.FilterApplied, Names: []string{"LowQual"}}))
	got = w.extractAndReset()
	lqOff, err := sd.lookup("LowQual")
	require.NoError(t, err)
	assert.Equal(t, int8(lqOff), int8(got[1]))
}

func TestWriteFilterBlockUndeclaredNameIsHeaderShape(t *testing.T) {
	h := basicHeader()
	sd, _, err := buildDictionaries(h)
	require.NoError(t, err)
	var w typedWriter
	err = writeFilterBlock(&w, sd, variant.Filters{State: variant.FilterApplied, Names: []string{"nope"}})
	require.Error(t, err)
	assert.True(t, variant.Is(variant.HeaderShape, err))
}

func TestWriteInfoBlockUndeclaredKeyIsHeaderShape(t *testing.T) {
	h := oneContigHeader()
	sd, cd, err := buildDictionaries(h)
	require.NoError(t, err)
	reg, err := newRegistry(h, sd)
	require.NoError(t, err)
	r := &variant.VariantRecord{
		ContigID:    "chr1",
		AllelesList: []variant.Allele{{Bases: "A"}},
		Info:        map[string]variant.DynValue{"UNDECLARED": {Tag: variant.DynInt, Int: 1}},
	}
	var w typedWriter
	err = writeSiteBlock(&w, reg, cd, sd, h, r, 0)
	require.Error(t, err)
	assert.True(t, variant.Is(variant.HeaderShape, err))
}

func TestWriteSiteBlockBasicShape(t *testing.T) {
	h := basicHeader()
	sd, cd, err := buildDictionaries(h)
	require.NoError(t, err)
	reg, err := newRegistry(h, sd)
	require.NoError(t, err)
	r := biallelicSNP()
	var w typedWriter
	require.NoError(t, writeSiteBlock(&w, reg, cd, sd, h, r, 0))
	got := w.extractAndReset()

	// contig offset (4), POS-1 (4), rlen (4), qual (4) = 16 bytes before the
	// variable-length ID/alleles/filter/info section.
	require.True(t, len(got) >= 16)
	contigOff := int32(got[0]) | int32(got[1])<<8 | int32(got[2])<<16 | int32(got[3])<<24
	assert.Equal(t, int32(0), contigOff) // chr1 is the first declared contig
	pos := int32(got[4]) | int32(got[5])<<8 | int32(got[6])<<16 | int32(got[7])<<24
	assert.Equal(t, int32(99), pos) // 1-based 100 -> 0-based 99
}

func TestWriteSiteBlockUnknownContigIsHeaderShape(t *testing.T) {
	h := basicHeader()
	sd, cd, err := buildDictionaries(h)
	require.NoError(t, err)
	reg, err := newRegistry(h, sd)
	require.NoError(t, err)
	r := &variant.VariantRecord{ContigID: "chrUnknown", AllelesList: []variant.Allele{{Bases: "A"}}}
	var w typedWriter
	err = writeSiteBlock(&w, reg, cd, sd, h, r, 0)
	require.Error(t, err)
	assert.True(t, variant.Is(variant.HeaderShape, err))
}
