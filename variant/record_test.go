// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordSimpleAccessors(t *testing.T) {
	r := &VariantRecord{
		ContigID:    "chr1",
		StartPos:    100,
		EndPos:      100,
		IDField:     "rs1",
		AllelesList: []Allele{{Bases: "A"}, {Bases: "G"}},
		Qual:        30,
		HasQual:     true,
		Filter:      Filters{State: FilterPassed},
	}
	assert.Equal(t, "chr1", r.Contig())
	assert.Equal(t, int64(100), r.Start())
	assert.Equal(t, int64(100), r.End())
	assert.Equal(t, "rs1", r.ID())
	assert.Equal(t, []Allele{{Bases: "A"}, {Bases: "G"}}, r.Alleles())
	assert.Equal(t, Filters{State: FilterPassed}, r.FilterState())

	q, ok := r.Quality()
	assert.True(t, ok)
	assert.Equal(t, 30.0, q)
}

func TestRecordQualityAbsent(t *testing.T) {
	r := &VariantRecord{}
	q, ok := r.Quality()
	assert.False(t, ok)
	assert.Equal(t, 0.0, q)
}

func TestInfoIterUsesExplicitOrderWhenSet(t *testing.T) {
	r := &VariantRecord{
		Info:      map[string]DynValue{"DP": {Tag: DynInt, Int: 5}, "AF": {Tag: DynFloat, Float: 0.5}},
		InfoOrder: []string{"AF", "DP"},
	}
	var seen []string
	r.InfoIter(func(key string, v DynValue) bool {
		seen = append(seen, key)
		return true
	})
	assert.Equal(t, []string{"AF", "DP"}, seen)
}

func TestInfoIterSortsKeysWhenOrderUnset(t *testing.T) {
	r := &VariantRecord{
		Info: map[string]DynValue{"DP": {Tag: DynInt}, "AF": {Tag: DynFloat}, "DB": {Tag: DynFlag}},
	}
	var seen []string
	r.InfoIter(func(key string, v DynValue) bool {
		seen = append(seen, key)
		return true
	})
	assert.Equal(t, []string{"AF", "DB", "DP"}, seen)
}

func TestInfoIterStopsOnFalseReturn(t *testing.T) {
	r := &VariantRecord{
		Info:      map[string]DynValue{"DP": {}, "AF": {}, "DB": {}},
		InfoOrder: []string{"AF", "DB", "DP"},
	}
	var seen []string
	r.InfoIter(func(key string, v DynValue) bool {
		seen = append(seen, key)
		return key != "DB"
	})
	assert.Equal(t, []string{"AF", "DB"}, seen)
}

func TestFormatKeysNoGenotypesReturnsNil(t *testing.T) {
	r := &VariantRecord{}
	h := &VariantHeader{Format: []FieldDecl{{ID: "GT"}, {ID: "DP"}}}
	assert.Nil(t, r.FormatKeys(h))
}

func TestFormatKeysGTFirstThenDeclarationOrder(t *testing.T) {
	h := &VariantHeader{Format: []FieldDecl{{ID: "GT"}, {ID: "DP"}, {ID: "GQ"}, {ID: "FT"}}}
	r := &VariantRecord{
		GTView: GenotypesView{
			Decoded: map[string]Genotype{
				"S1": {Alleles: []int{0, 1}, FT: "PASS", Fields: map[string]DynValue{"GQ": {Tag: DynInt, Int: 40}}},
			},
		},
	}
	assert.Equal(t, []string{"GT", "GQ", "FT"}, r.FormatKeys(h))
}

func TestFormatKeysOmitsKeysAbsentFromAllSamples(t *testing.T) {
	h := &VariantHeader{Format: []FieldDecl{{ID: "GT"}, {ID: "DP"}}}
	r := &VariantRecord{
		GTView: GenotypesView{
			Decoded: map[string]Genotype{"S1": {Alleles: []int{0, 0}}},
		},
	}
	assert.Equal(t, []string{"GT"}, r.FormatKeys(h))
}

func TestMaxPloidyReturnsDefaultWhenNoGenotypes(t *testing.T) {
	r := &VariantRecord{}
	assert.Equal(t, 2, r.MaxPloidy(2))
}

func TestMaxPloidyReturnsHighestAcrossSamples(t *testing.T) {
	r := &VariantRecord{
		GTView: GenotypesView{
			Decoded: map[string]Genotype{
				"S1": {Ploidy: 2},
				"S2": {Ploidy: 1},
				"S3": {Ploidy: 3},
			},
		},
	}
	assert.Equal(t, 3, r.MaxPloidy(2))
}
