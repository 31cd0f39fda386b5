// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package variant defines the value objects and capability interfaces that
// the BCF2 writer pipeline (package encoding/bcf2) consumes. Construction and
// parsing of these objects from VCF/BCF text or any other source is outside
// this package's concern; it only defines the shapes the encoder needs and a
// reference in-memory implementation good enough to build and test writers
// against.
package variant

import "context"

// Cardinality describes how many values a header-declared INFO or FORMAT
// field carries, per spec.md §3.
type Cardinality int

const (
	// CardinalityUnbounded means the field carries a variable-length list
	// whose size is not derivable from the header or the record shape.
	CardinalityUnbounded Cardinality = iota
	// CardinalityFixed means the field always carries exactly N values.
	CardinalityFixed
	// CardinalityPerAllele means the field carries one value per alternate
	// allele.
	CardinalityPerAllele
	// CardinalityPerGenotype means the field carries one value per distinct
	// genotype combination given the record's ploidy and allele count.
	CardinalityPerGenotype
)

// Kind is the declared scalar type of an INFO or FORMAT field.
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindFlag
	KindCharacter
	KindString
)

// FieldDecl is a single INFO or FORMAT header declaration.
type FieldDecl struct {
	ID          string
	Kind        Kind
	Cardinality Cardinality
	Number      int // meaningful only when Cardinality == CardinalityFixed
	Description string
}

// ContigDecl is a single contig header declaration.
type ContigDecl struct {
	ID     string
	Length int64
}

// MetaLine is one line of header metadata in the header's canonical,
// stably-sorted order (spec.md §3).
type MetaLine struct {
	Category string // "INFO", "FORMAT", "FILTER", "contig", ...
	ID       string // the declared id this line names; "" for "other" lines
	Text     string // fully rendered "##category=<...>" text
}

// Header is the capability interface C3/C4/C5/C6 consume to build
// dictionaries and field encoders. Implementations must return slices in a
// stable order across calls: the dictionary built from them is frozen for
// the writer's lifetime.
type Header interface {
	InfoLines() []FieldDecl
	FormatLines() []FieldDecl
	Contigs() []ContigDecl
	Filters() []string
	Samples() []string
	SortedMetadata() []MetaLine
}

// FilterState describes a record's FILTER column state (spec.md §3).
type FilterState int

const (
	// FilterUnfiltered means FILTER was never evaluated.
	FilterUnfiltered FilterState = iota
	// FilterPassed means FILTER evaluated to PASS.
	FilterPassed
	// FilterApplied means one or more named filters are active.
	FilterApplied
)

// Filters carries a record's FILTER column.
type Filters struct {
	State FilterState
	Names []string // meaningful only when State == FilterApplied
}

// DynValueTag selects which field of DynValue, the tagged union spec.md §9
// mandates in place of the source's dynamic Object-typed attribute
// containers, is meaningful.
type DynValueTag int

const (
	DynNull DynValueTag = iota
	DynInt
	DynIntVec
	DynFloat
	DynFloatVec
	DynFlag
	DynString
	DynStringVec
)

// DynValue is a normalized INFO/FORMAT attribute value. Values are
// constructed once, at record-construction time, so C4's field encoders
// never type-switch on interface{}.
type DynValue struct {
	Tag       DynValueTag
	Int       int32
	IntVec    []int32
	Float     float32
	FloatVec  []float32
	Str       string
	StrVec    []string
}

// IsMissing reports whether v represents an absent value (as opposed to an
// explicit Flag-present or zero value).
func (v DynValue) IsMissing() bool { return v.Tag == DynNull }

// Genotype is one sample's per-record genotype data (spec.md §3).
type Genotype struct {
	Sample  string
	Ploidy  int
	Alleles []int // -1 marks no-call; indices into the record's allele list
	Phased  bool
	FT      string // per-sample filter string; "" means absent
	Fields  map[string]DynValue
}

// GenotypesView is the sum type spec.md §9 mandates for genotype storage:
// either a decoded vector of per-sample Genotypes, or an opaque,
// previously-BCF2-encoded byte slice carried through unchanged when safe
// (spec.md §4.6, §9).
type GenotypesView struct {
	// Decoded holds per-sample genotypes when the view is not lazy. Decoded
	// is keyed by sample name for GenotypeFor's benefit, but order matters
	// for encoding, so Order gives the declared sample order to encode in.
	Decoded map[string]Genotype
	Order   []string

	// Lazy, when non-nil, carries a previously-encoded BCF2 genotypes block
	// plus a fingerprint of the header it was encoded against. See
	// encoding/bcf2's header-fingerprint passthrough check.
	Lazy *LazyGenotypes
}

// LazyGenotypes is previously-encoded BCF2 genotype bytes plus the
// structural fingerprint of the header they were encoded against.
type LazyGenotypes struct {
	Bytes       []byte
	Fingerprint uint64
}

// IsLazy reports whether g carries a lazy (previously-encoded) payload.
func (g GenotypesView) IsLazy() bool { return g.Lazy != nil }

// GenotypeFor returns the Genotype for sample, synthesizing an all-missing
// genotype at ploidy maxPloidy if sample has no entry (spec.md §3: "a
// missing genotype for a known sample is synthesized on demand with ploidy
// matching the record-wide maximum ploidy").
func (g GenotypesView) GenotypeFor(sample string, maxPloidy int) Genotype {
	if gt, ok := g.Decoded[sample]; ok {
		return gt
	}
	alleles := make([]int, maxPloidy)
	for i := range alleles {
		alleles[i] = -1
	}
	return Genotype{Sample: sample, Ploidy: maxPloidy, Alleles: alleles}
}

// Allele is a single allele at a record: either the reference (index 0) or
// one of the alternates.
type Allele struct {
	Bases string
}

// Record is the capability interface C5/C6/C7/C8 consume, per spec.md §6.
type Record interface {
	Contig() string
	Start() int64 // 1-based, inclusive
	End() int64   // 1-based, inclusive
	Quality() (float64, bool)
	ID() string
	Alleles() []Allele // index 0 is the reference allele
	FilterState() Filters
	InfoIter(yield func(key string, v DynValue) bool)
	Genotypes() GenotypesView
	FormatKeys(h Header) []string
	MaxPloidy(deflt int) int
}

// OutputByteSink is the abstract output collaborator of spec.md §6.
type OutputByteSink interface {
	WriteAll(p []byte) error
	Flush() error
	Close() error
	// Position returns the number of bytes written so far. Required only
	// when indexing is enabled (C8).
	Position() uint64
}

// IndexBlob is the finalized, on-disk-ready representation of a built index.
type IndexBlob struct {
	Bytes []byte
}

// IndexBuilder is the abstract indexing collaborator of spec.md §1/§4.8. A
// reference implementation lives in package index/gvindex.
type IndexBuilder interface {
	Observe(r Record, fileOffset uint64) error
	Finalize(endOffset uint64) (IndexBlob, error)
}

// Writer is the capability every stage of the writer pipeline (the core
// encoder, the sort buffer, the async queue, the sharded writer) implements
// and wraps, per spec.md §2's "data flows top-down" composition rule.
type Writer interface {
	WriteHeader(h Header) error
	Add(r Record) error
	Close() error
}

// ContextWriter is implemented by stages whose Add may legitimately block on
// I/O or queue backpressure and want to honor cancellation (the async
// queue). Plain Writer implementations are used when cancellation isn't
// needed.
type ContextWriter interface {
	Writer
	AddContext(ctx context.Context, r Record) error
}
