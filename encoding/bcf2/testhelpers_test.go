// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import "github.com/grailbio/bcf2/variant"

// memSink is a minimal in-memory variant.OutputByteSink for tests that need
// a real sink without touching the filesystem.
type memSink struct {
	buf    []byte
	closed bool
}

func (s *memSink) WriteAll(p []byte) error {
	s.buf = append(s.buf, p...)
	return nil
}
func (s *memSink) Flush() error      { return nil }
func (s *memSink) Close() error      { s.closed = true; return nil }
func (s *memSink) Position() uint64  { return uint64(len(s.buf)) }

var _ variant.OutputByteSink = (*memSink)(nil)

// oneContigHeader builds a minimal header with a single contig, no samples,
// no INFO/FORMAT declarations, and no filters beyond the implicit PASS.
func oneContigHeader() *variant.VariantHeader {
	return &variant.VariantHeader{
		ContigList: []variant.ContigDecl{{ID: "chr1", Length: 1000}},
	}
}

// basicHeader builds a header with the common INFO/FORMAT fields this
// package's tests exercise: DP/AF/DB/NOTE at the site level, GT/DP/GQ/PL/FT per
// sample, two contigs, one named filter, and the given samples.
func basicHeader(samples ...string) *variant.VariantHeader {
	return &variant.VariantHeader{
		Info: []variant.FieldDecl{
			{ID: "DP", Kind: variant.KindInteger, Cardinality: variant.CardinalityFixed, Number: 1},
			{ID: "AF", Kind: variant.KindFloat, Cardinality: variant.CardinalityPerAllele},
			{ID: "DB", Kind: variant.KindFlag},
			{ID: "NOTE", Kind: variant.KindString, Cardinality: variant.CardinalityFixed, Number: 1},
		},
		Format: []variant.FieldDecl{
			{ID: "GT", Kind: variant.KindString, Cardinality: variant.CardinalityFixed, Number: 1},
			{ID: "DP", Kind: variant.KindInteger, Cardinality: variant.CardinalityFixed, Number: 1},
			{ID: "GQ", Kind: variant.KindInteger, Cardinality: variant.CardinalityFixed, Number: 1},
			{ID: "PL", Kind: variant.KindInteger, Cardinality: variant.CardinalityPerGenotype},
			{ID: "FT", Kind: variant.KindString, Cardinality: variant.CardinalityFixed, Number: 1},
		},
		ContigList:  []variant.ContigDecl{{ID: "chr1", Length: 249250621}, {ID: "chr2", Length: 243199373}},
		FilterNames: []string{"LowQual"},
		SampleNames: samples,
	}
}

// biallelicSNP builds a minimal single-sample, biallelic, no-FORMAT-fields
// record at chr1:100 with a PASS filter.
func biallelicSNP() *variant.VariantRecord {
	return &variant.VariantRecord{
		ContigID:    "chr1",
		StartPos:    100,
		EndPos:      100,
		IDField:     ".",
		AllelesList: []variant.Allele{{Bases: "A"}, {Bases: "G"}},
		HasQual:     true,
		Qual:        40,
		Filter:      variant.Filters{State: variant.FilterPassed},
	}
}
