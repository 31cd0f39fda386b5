// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import (
	"strings"

	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/bcf2/variant"
)

// headerFingerprint is the C6 "structural fingerprint" of spec.md §9: a hash
// of the header's FORMAT declaration order and sample order, the two things
// that determine how a genotypes block is laid out. A LazyGenotypes value
// may be passed through unchanged only when its recorded fingerprint matches
// the writer's current header (spec.md §4.6 "lazy passthrough").
func headerFingerprint(h variant.Header) uint64 {
	var b strings.Builder
	for _, d := range h.FormatLines() {
		b.WriteString(d.ID)
		b.WriteByte(0)
	}
	b.WriteByte(0xff)
	for _, s := range h.Samples() {
		b.WriteString(s)
		b.WriteByte(0)
	}
	return farm.Hash64([]byte(b.String()))
}

// newGenotypeEncoder picks the FORMAT (genotype) strategy for d per
// spec.md §4.4 and §4.6, top to bottom: GT gets its own allele-index
// encoding, the four conventional integer-array keys get the two-pass
// width detection, and everything else dispatches on declared Kind.
func newGenotypeEncoder(k fieldKey, d variant.FieldDecl) genotypeEncoder {
	switch {
	case d.ID == "GT":
		return gtEncoder{k}
	case knownIntArrayFields[d.ID] && d.Kind == variant.KindInteger:
		return integerArrayEncoder{k, d}
	case d.Kind == variant.KindFloat:
		return floatGenotypeEncoder{k, d}
	case d.Kind == variant.KindInteger:
		return dynamicIntEncoder{k, d}
	default:
		return stringOrCharGenotypeEncoder{k, d}
	}
}

// --- FORMAT (genotype) encoder implementations ---

// gtEncoder implements spec.md §4.6.a: each allele index is packed as
// ((index+1)<<1)|phased, no-call encoded as 0, widened to the narrowest
// integer type that holds every packed value across every sample. A record
// with 16 or more alleles overflows the packed encoding's headroom and is an
// UnsupportedShape error (spec.md §4.6.a edge case).
type gtEncoder struct{ fieldKey }

const maxAllelesForGT = 15

func (e gtEncoder) writeGenotype(w *typedWriter, h variant.Header, r variant.Record, samples []string, maxPloidy int) error {
	if len(r.Alleles()) > maxAllelesForGT {
		return variant.Errorf(variant.UnsupportedShape, "GT: %d alleles exceeds the %d-allele packed encoding limit", len(r.Alleles()), maxAllelesForGT)
	}
	packed := make([][]int32, len(samples))
	widest := TypeInt8
	for i, s := range samples {
		gt := r.Genotypes().GenotypeFor(s, maxPloidy)
		vs := make([]int32, maxPloidy)
		for j := 0; j < maxPloidy; j++ {
			var a int
			if j < len(gt.Alleles) {
				a = gt.Alleles[j]
			} else {
				a = -1
			}
			var v int32
			if a < 0 {
				v = 0
			} else {
				v = int32((a+1)<<1) | 0
				if gt.Phased {
					v |= 1
				}
			}
			vs[j] = v
			widest = promote(widest, narrowestType(v))
		}
		packed[i] = vs
	}
	w.writeTypeDescriptor(maxPloidy, widest)
	for _, vs := range packed {
		for _, v := range vs {
			w.writeRawValue(int64(v), widest)
		}
	}
	return nil
}

// ftEncoder and the generic stringOrCharGenotypeEncoder share the same
// per-sample raw-string-padded-to-max-width shape (spec.md §4.6).
type stringOrCharGenotypeEncoder struct {
	fieldKey
	decl variant.FieldDecl
}

func (e stringOrCharGenotypeEncoder) writeGenotype(w *typedWriter, h variant.Header, r variant.Record, samples []string, maxPloidy int) error {
	values := make([]string, len(samples))
	width := 1
	for i, s := range samples {
		gt := r.Genotypes().GenotypeFor(s, maxPloidy)
		var str string
		if e.decl.ID == "FT" {
			str = gt.FT
		} else if v, ok := gt.Fields[e.decl.ID]; ok && !v.IsMissing() {
			if v.Tag == variant.DynString {
				str = v.Str
			} else if v.Tag == variant.DynStringVec {
				str = joinComma(v.StrVec)
			}
		}
		values[i] = str
		if len(str) > width {
			width = len(str)
		}
	}
	w.writeTypeDescriptor(width, TypeChar)
	for _, str := range values {
		w.writeRawString(str, width)
	}
	return nil
}

type ftEncoder = stringOrCharGenotypeEncoder

// integerArrayEncoder implements spec.md §4.6.b: a two-pass emission over
// DP/AD/GQ/PL (and any other header-declared integer FORMAT field routed
// here). The first pass determines the per-sample element count (padding
// every sample's vector to the record-wide max, per VCF's ragged-array
// convention) and the narrowest integer type that holds every value and
// every pad; the second pass emits the single shared type descriptor
// followed by each sample's fixed-width vector.
type integerArrayEncoder struct {
	fieldKey
	decl variant.FieldDecl
}

func (e integerArrayEncoder) writeGenotype(w *typedWriter, h variant.Header, r variant.Record, samples []string, maxPloidy int) error {
	perSample := make([][]int32, len(samples))
	width := 0
	widest := TypeInt8
	for i, s := range samples {
		gt := r.Genotypes().GenotypeFor(s, maxPloidy)
		v, ok := gt.Fields[e.decl.ID]
		var vs []int32
		if ok && !v.IsMissing() {
			switch v.Tag {
			case variant.DynInt:
				vs = []int32{v.Int}
			case variant.DynIntVec:
				vs = v.IntVec
			}
		}
		perSample[i] = vs
		if len(vs) > width {
			width = len(vs)
		}
		widest = promote(widest, widestOf(vs))
	}
	if width == 0 {
		width = 1
	}
	w.writeTypeDescriptor(width, widest)
	for _, vs := range perSample {
		for j := 0; j < width; j++ {
			if j < len(vs) {
				w.writeRawValue(int64(vs[j]), widest)
			} else {
				w.writeMissingValue(widest)
			}
		}
	}
	return nil
}

// dynamicIntEncoder handles any other Integer-kind FORMAT field, including
// Fixed(1) scalars, with the same two-pass shape as integerArrayEncoder but
// without the known-field special-casing.
type dynamicIntEncoder struct {
	fieldKey
	decl variant.FieldDecl
}

func (e dynamicIntEncoder) writeGenotype(w *typedWriter, h variant.Header, r variant.Record, samples []string, maxPloidy int) error {
	ia := integerArrayEncoder(e)
	return ia.writeGenotype(w, h, r, samples, maxPloidy)
}

// floatGenotypeEncoder mirrors integerArrayEncoder's padding shape for
// Float-kind FORMAT fields, whose width never changes with value (FLOAT32
// fields don't narrow).
type floatGenotypeEncoder struct {
	fieldKey
	decl variant.FieldDecl
}

func (e floatGenotypeEncoder) writeGenotype(w *typedWriter, h variant.Header, r variant.Record, samples []string, maxPloidy int) error {
	perSample := make([][]float32, len(samples))
	width := 0
	for i, s := range samples {
		gt := r.Genotypes().GenotypeFor(s, maxPloidy)
		v, ok := gt.Fields[e.decl.ID]
		var vs []float32
		if ok && !v.IsMissing() {
			switch v.Tag {
			case variant.DynFloat:
				vs = []float32{v.Float}
			case variant.DynFloatVec:
				vs = v.FloatVec
			}
		}
		perSample[i] = vs
		if len(vs) > width {
			width = len(vs)
		}
	}
	if width == 0 {
		width = 1
	}
	w.writeTypeDescriptor(width, TypeFloat32)
	for _, vs := range perSample {
		for j := 0; j < width; j++ {
			if j < len(vs) {
				w.writeFloat32(vs[j])
			} else {
				w.writeMissingValue(TypeFloat32)
			}
		}
	}
	return nil
}

// writeGenotypeBlock is the C6 "Genotype Writer" entry point. When r's
// GenotypesView carries a lazy payload encoded against a header with a
// matching fingerprint, its bytes are appended unchanged (spec.md §4.6 lazy
// passthrough); otherwise every FORMAT key present on r is encoded in turn,
// GT first. A fingerprint mismatch never fails the write: it just means the
// lazy bytes are stale, so the record falls through to the normal per-key
// encoding loop over its decoded genotypes instead of reusing them.
func writeGenotypeBlock(w *typedWriter, reg *Registry, h variant.Header, r variant.Record, fp uint64, keys []string) error {
	gv := r.Genotypes()
	if gv.IsLazy() && gv.Lazy.Fingerprint == fp {
		w.buf.Write(gv.Lazy.Bytes)
		return nil
	}

	samples := h.Samples()
	maxPloidy := r.MaxPloidy(2)
	for _, key := range keys {
		enc, ok := reg.genotype[key]
		if !ok {
			return variant.Errorf(variant.HeaderShape, "FORMAT key %q not declared in header", key)
		}
		enc.writeFieldKey(w)
		if err := enc.writeGenotype(w, h, r, samples, maxPloidy); err != nil {
			return err
		}
	}
	return nil
}
