// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import (
	"github.com/grailbio/bcf2/variant"
)

// knownIntArrayFields names the FORMAT keys spec.md §4.6.b special-cases
// with the IntegerArray genotype encoder (DP, GQ are per-sample scalars;
// AD, PL are per-sample fixed-width vectors; all four get the two-pass
// narrowest-type-then-emit treatment).
var knownIntArrayFields = map[string]bool{"DP": true, "AD": true, "GQ": true, "PL": true}

// fieldKey is embedded by every encoder; it implements the
// "writeFieldKey(buffer)" operation common to all of them (spec.md §4.4):
// a typed-int of the dictionary offset, width chosen by C2 on the offset
// itself.
type fieldKey struct {
	offset int32
}

func (k fieldKey) writeFieldKey(w *typedWriter) {
	w.writeTypedScalarInt(k.offset)
}

// siteEncoder is the C4 strategy for one INFO key, selected once at header
// time per the dispatch table of spec.md §4.4 and memoized in Registry.
type siteEncoder interface {
	writeFieldKey(w *typedWriter)
	// writeSite encodes one record's value for this key. v.IsMissing()
	// means the declared field is absent on this record; writeSite must
	// emit the header-declared type's typed-missing pattern in that case
	// (spec.md §4.5 step 10).
	writeSite(w *typedWriter, r variant.Record, v variant.DynValue) error
}

// genotypeEncoder is the C4 strategy for one FORMAT key (spec.md §4.4,
// §4.6); implementations live in genotype.go alongside the rest of C6.
type genotypeEncoder interface {
	writeFieldKey(w *typedWriter)
	writeGenotype(w *typedWriter, h variant.Header, r variant.Record, samples []string, maxPloidy int) error
}

// Registry is the C4 "Field Encoder Registry": for each declared INFO key,
// exactly one site encoder; for each declared FORMAT key, exactly one
// genotype encoder. Built once in WriteHeader and immutable thereafter
// (spec.md §3 "Lifecycle").
type Registry struct {
	site      map[string]siteEncoder
	genotype  map[string]genotypeEncoder
	infoDecls map[string]variant.FieldDecl
	fmtDecls  map[string]variant.FieldDecl
}

// newRegistry builds the dispatch table of spec.md §4.4 from h, using sd for
// dictionary offsets.
func newRegistry(h variant.Header, sd *stringDictionary) (*Registry, error) {
	r := &Registry{
		site:      make(map[string]siteEncoder),
		genotype:  make(map[string]genotypeEncoder),
		infoDecls: make(map[string]variant.FieldDecl),
		fmtDecls:  make(map[string]variant.FieldDecl),
	}
	for _, d := range h.InfoLines() {
		off, err := sd.lookup(d.ID)
		if err != nil {
			return nil, err
		}
		r.infoDecls[d.ID] = d
		r.site[d.ID] = newSiteEncoder(fieldKey{int32(off)}, d)
	}
	for _, d := range h.FormatLines() {
		off, err := sd.lookup(d.ID)
		if err != nil {
			return nil, err
		}
		r.fmtDecls[d.ID] = d
		r.genotype[d.ID] = newGenotypeEncoder(fieldKey{int32(off)}, d)
	}
	return r, nil
}

// newSiteEncoder picks the INFO (site) strategy for d per spec.md §4.4's
// table, top to bottom.
func newSiteEncoder(k fieldKey, d variant.FieldDecl) siteEncoder {
	switch d.Kind {
	case variant.KindFlag:
		return flagSite{k}
	case variant.KindFloat:
		return floatSite{k, d}
	case variant.KindCharacter, variant.KindString:
		return stringOrCharSite{k, d}
	case variant.KindInteger:
		if d.Cardinality == variant.CardinalityFixed && d.Number == 1 {
			return atomicIntSite{k}
		}
		return genericIntSite{k, d}
	default:
		return stringOrCharSite{k, d}
	}
}

// numElementsForDecl implements the "numElements(record, value)" rule of
// spec.md §4.4: fixed from the header, context-derived from the record, or
// value-derived — in that priority order, value-derived being the fallback
// signaled by returning ok=false.
func numElementsForDecl(d variant.FieldDecl, r variant.Record) (n int, ok bool) {
	switch d.Cardinality {
	case variant.CardinalityFixed:
		return d.Number, true
	case variant.CardinalityPerAllele:
		return len(r.Alleles()) - 1, true
	case variant.CardinalityPerGenotype:
		return genotypeCombinations(len(r.Alleles()), r.MaxPloidy(2)), true
	default:
		return 0, false
	}
}

// --- INFO (site) encoder implementations ---

type flagSite struct{ fieldKey }

func (e flagSite) writeSite(w *typedWriter, r variant.Record, v variant.DynValue) error {
	// Flags carry no value; BCF2 represents presence with a zero-count typed
	// descriptor (count=0, type=MISSING is the htslib convention for Flag).
	w.writeTypeDescriptor(0, TypeMissing)
	return nil
}

type floatSite struct {
	fieldKey
	decl variant.FieldDecl
}

func (e floatSite) writeSite(w *typedWriter, r variant.Record, v variant.DynValue) error {
	if v.IsMissing() {
		if n, ok := numElementsForDecl(e.decl, r); ok && n != 1 {
			w.writeTypeDescriptor(n, TypeFloat32)
			for i := 0; i < n; i++ {
				w.writeMissingValue(TypeFloat32)
			}
			return nil
		}
		w.writeTypedMissingScalar(TypeFloat32)
		return nil
	}
	switch v.Tag {
	case variant.DynFloat:
		w.writeTypedFloatVector([]float32{v.Float})
	case variant.DynFloatVec:
		w.writeTypedFloatVector(v.FloatVec)
	default:
		return variant.Errorf(variant.RecordShape, "INFO %s: expected Float value", e.decl.ID)
	}
	return nil
}

type stringOrCharSite struct {
	fieldKey
	decl variant.FieldDecl
}

func (e stringOrCharSite) writeSite(w *typedWriter, r variant.Record, v variant.DynValue) error {
	if v.IsMissing() {
		w.writeTypedMissingScalar(TypeChar)
		return nil
	}
	switch v.Tag {
	case variant.DynString:
		w.writeTypedString(v.Str)
	case variant.DynStringVec:
		w.writeTypedString(joinComma(v.StrVec))
	default:
		return variant.Errorf(variant.RecordShape, "INFO %s: expected String/Character value", e.decl.ID)
	}
	return nil
}

type atomicIntSite struct{ fieldKey }

func (e atomicIntSite) writeSite(w *typedWriter, r variant.Record, v variant.DynValue) error {
	if v.IsMissing() {
		w.writeTypedMissingScalar(TypeInt32)
		return nil
	}
	if v.Tag != variant.DynInt {
		return variant.Errorf(variant.RecordShape, "atomic INFO field: expected scalar Integer value")
	}
	t := narrowestType(v.Int)
	w.writeTypeDescriptor(1, t)
	w.writeRawValue(int64(v.Int), t)
	return nil
}

type genericIntSite struct {
	fieldKey
	decl variant.FieldDecl
}

func (e genericIntSite) writeSite(w *typedWriter, r variant.Record, v variant.DynValue) error {
	var vs []int32
	switch v.Tag {
	case variant.DynNull:
		n, ok := numElementsForDecl(e.decl, r)
		if !ok {
			n = 1
		}
		w.writeTypeDescriptor(n, TypeInt32)
		for i := 0; i < n; i++ {
			w.writeMissingValue(TypeInt32)
		}
		return nil
	case variant.DynInt:
		vs = []int32{v.Int}
	case variant.DynIntVec:
		vs = v.IntVec
	default:
		return variant.Errorf(variant.RecordShape, "INFO %s: expected Integer value", e.decl.ID)
	}
	t := widestOf(vs)
	w.writeTypedIntVector(vs, t)
	return nil
}

func joinComma(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	out := vs[0]
	for _, v := range vs[1:] {
		out += "," + v
	}
	return out
}
