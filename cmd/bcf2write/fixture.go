// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/grailbio/bcf2/variant"
)

// contigSpec is one --contigs entry: a name and a reference length, used
// both to populate the header's contig dictionary and to bound where the
// generator places synthetic records.
type contigSpec struct {
	name   string
	length int64
}

// parseContigs parses a comma-separated "name:length,name:length,..." spec.
func parseContigs(spec string) ([]contigSpec, error) {
	parts := strings.Split(spec, ",")
	contigs := make([]contigSpec, 0, len(parts))
	for _, p := range parts {
		nameLen := strings.SplitN(p, ":", 2)
		if len(nameLen) != 2 {
			return nil, fmt.Errorf("bad contig spec %q: want name:length", p)
		}
		length, err := strconv.ParseInt(nameLen[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad contig length in %q: %v", p, err)
		}
		contigs = append(contigs, contigSpec{name: nameLen[0], length: length})
	}
	return contigs, nil
}

func sampleNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("SAMPLE%03d", i)
	}
	return names
}

// syntheticHeader builds a header declaring the INFO/FORMAT fields the
// generator populates: DP/AF/DB at the site level, GT/DP/GQ/PL per sample.
// PL's per-genotype cardinality and DP/GQ's known-int-array routing
// (fieldencoder.go's knownIntArrayFields) exercise C6's two-pass
// width-promotion path; AF's per-allele cardinality exercises C4's
// numElementsForDecl.
func syntheticHeader(contigs []contigSpec, samples []string) *variant.VariantHeader {
	h := &variant.VariantHeader{
		Info: []variant.FieldDecl{
			{ID: "DP", Kind: variant.KindInteger, Cardinality: variant.CardinalityFixed, Number: 1, Description: "Total depth"},
			{ID: "AF", Kind: variant.KindFloat, Cardinality: variant.CardinalityPerAllele, Description: "Allele frequency"},
			{ID: "DB", Kind: variant.KindFlag, Description: "dbSNP membership"},
		},
		Format: []variant.FieldDecl{
			{ID: "GT", Kind: variant.KindString, Cardinality: variant.CardinalityFixed, Number: 1, Description: "Genotype"},
			{ID: "DP", Kind: variant.KindInteger, Cardinality: variant.CardinalityFixed, Number: 1, Description: "Sample depth"},
			{ID: "GQ", Kind: variant.KindInteger, Cardinality: variant.CardinalityFixed, Number: 1, Description: "Genotype quality"},
			{ID: "PL", Kind: variant.KindInteger, Cardinality: variant.CardinalityPerGenotype, Description: "Phred-scaled likelihoods"},
		},
		FilterNames: []string{"LowQual"},
		SampleNames: samples,
	}
	for _, c := range contigs {
		h.ContigList = append(h.ContigList, variant.ContigDecl{ID: c.name, Length: c.length})
	}
	return h
}

var altBases = []string{"A", "C", "G", "T"}

// generator produces a deterministic (seed-controlled) stream of synthetic
// VariantRecords spanning the given contigs, in increasing coordinate order
// within each contig — the shape cmd/bcf2write needs to exercise the full
// pipeline end to end, including the SortBuffer and on-the-fly indexing
// options, without depending on an actual VCF/BCF parser (out of scope per
// spec.md §1's Non-goals).
type generator struct {
	contigs []contigSpec
	samples []string
	rnd     *rand.Rand
	total   int
	emitted int

	contigIdx int
	pos       int64
}

func newGenerator(contigs []contigSpec, samples []string, seed int64, total int) *generator {
	g := &generator{
		contigs: contigs,
		samples: samples,
		rnd:     rand.New(rand.NewSource(seed)),
		total:   total,
	}
	if len(contigs) > 0 {
		g.pos = int64(1 + g.rnd.Intn(200))
	}
	return g
}

// Next returns the next synthetic record, or ok=false once total records
// have been emitted or the contig list is exhausted.
func (g *generator) Next() (*variant.VariantRecord, bool) {
	if g.emitted >= g.total || g.contigIdx >= len(g.contigs) {
		return nil, false
	}
	c := g.contigs[g.contigIdx]
	if g.pos > c.length {
		g.contigIdx++
		if g.contigIdx >= len(g.contigs) {
			return nil, false
		}
		c = g.contigs[g.contigIdx]
		g.pos = int64(1 + g.rnd.Intn(200))
	}

	// Every 7th record is biallelic+1 (one extra ALT), exercising
	// multi-allelic GT packing and AF's per-allele cardinality.
	nAlt := 1
	if g.emitted%7 == 0 {
		nAlt = 2
	}
	alleles := make([]variant.Allele, 0, nAlt+1)
	alleles = append(alleles, variant.Allele{Bases: pickBase(g.rnd)})
	for i := 0; i < nAlt; i++ {
		alleles = append(alleles, variant.Allele{Bases: pickBase(g.rnd)})
	}

	af := make([]float32, nAlt)
	for i := range af {
		af[i] = float32(g.rnd.Intn(100)) / 100
	}
	info := map[string]variant.DynValue{
		"DP": {Tag: variant.DynInt, Int: int32(10 + g.rnd.Intn(90))},
		"AF": {Tag: variant.DynFloatVec, FloatVec: af},
	}
	if g.rnd.Intn(3) == 0 {
		info["DB"] = variant.DynValue{Tag: variant.DynFlag}
	}

	decoded := make(map[string]variant.Genotype, len(g.samples))
	order := make([]string, len(g.samples))
	for i, s := range g.samples {
		const ploidy = 2
		gtAlleles := make([]int, ploidy)
		for p := range gtAlleles {
			gtAlleles[p] = g.rnd.Intn(nAlt + 1)
		}
		fields := map[string]variant.DynValue{
			"DP": {Tag: variant.DynInt, Int: int32(5 + g.rnd.Intn(60))},
			"GQ": {Tag: variant.DynInt, Int: int32(g.rnd.Intn(100))},
		}
		// Every 11th record omits PL on its first sample, exercising C6's
		// two-pass width-promotion padding (spec.md §4.6.b).
		if !(g.emitted%11 == 0 && i == 0) {
			pl := make([]int32, genotypeCombinations(nAlt+1, ploidy))
			for k := range pl {
				pl[k] = int32(g.rnd.Intn(255))
			}
			fields["PL"] = variant.DynValue{Tag: variant.DynIntVec, IntVec: pl}
		}
		decoded[s] = variant.Genotype{
			Sample:  s,
			Ploidy:  ploidy,
			Alleles: gtAlleles,
			Phased:  g.rnd.Intn(2) == 0,
			Fields:  fields,
		}
		order[i] = s
	}

	filter := variant.Filters{State: variant.FilterPassed}
	if g.rnd.Intn(10) == 0 {
		filter = variant.Filters{State: variant.FilterApplied, Names: []string{"LowQual"}}
	}

	rec := &variant.VariantRecord{
		ContigID:    c.name,
		StartPos:    g.pos,
		EndPos:      g.pos,
		IDField:     ".",
		AllelesList: alleles,
		HasQual:     true,
		Qual:        30 + g.rnd.Float64()*40,
		Filter:      filter,
		Info:        info,
		GTView:      variant.GenotypesView{Decoded: decoded, Order: order},
	}
	g.emitted++
	g.pos += int64(1 + g.rnd.Intn(200))
	return rec, true
}

func pickBase(rnd *rand.Rand) string { return altBases[rnd.Intn(len(altBases))] }

// genotypeCombinations mirrors encoding/bcf2's unexported combinatorics.go
// helper of the same name: the VCF Number=G element count for nAlleles
// alleles at the given ploidy.
func genotypeCombinations(nAlleles, ploidy int) int {
	n := int64(nAlleles + ploidy - 1)
	k := int64(ploidy)
	if k > n-k {
		k = n - k
	}
	result := int64(1)
	for i := int64(0); i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return int(result)
}
