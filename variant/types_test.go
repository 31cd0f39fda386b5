// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenotypeForReturnsDecodedEntry(t *testing.T) {
	gv := GenotypesView{
		Decoded: map[string]Genotype{
			"S1": {Sample: "S1", Ploidy: 2, Alleles: []int{0, 1}},
		},
	}
	gt := gv.GenotypeFor("S1", 2)
	assert.Equal(t, Genotype{Sample: "S1", Ploidy: 2, Alleles: []int{0, 1}}, gt)
}

func TestGenotypeForSynthesizesMissingGenotype(t *testing.T) {
	gv := GenotypesView{Decoded: map[string]Genotype{"S1": {Sample: "S1", Ploidy: 2}}}

	gt := gv.GenotypeFor("S2", 3)
	assert.Equal(t, "S2", gt.Sample)
	assert.Equal(t, 3, gt.Ploidy)
	assert.Equal(t, []int{-1, -1, -1}, gt.Alleles)
	assert.Equal(t, "", gt.FT)
	assert.Nil(t, gt.Fields)
}

func TestGenotypeForSynthesizesZeroPloidyAsEmptyAlleles(t *testing.T) {
	gv := GenotypesView{}
	gt := gv.GenotypeFor("S1", 0)
	assert.Equal(t, 0, gt.Ploidy)
	assert.Equal(t, []int{}, gt.Alleles)
}

func TestIsLazyReflectsLazyField(t *testing.T) {
	assert.False(t, GenotypesView{}.IsLazy())
	assert.True(t, GenotypesView{Lazy: &LazyGenotypes{Fingerprint: 1}}.IsLazy())
}

func TestDynValueIsMissing(t *testing.T) {
	assert.True(t, DynValue{}.IsMissing())
	assert.True(t, DynValue{Tag: DynNull}.IsMissing())
	assert.False(t, DynValue{Tag: DynInt, Int: 0}.IsMissing())
	assert.False(t, DynValue{Tag: DynFlag}.IsMissing())
}
