// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import (
	"github.com/grailbio/bcf2/variant"
)

// writeSiteBlock is the C5 "Site Writer" of spec.md §4.5: the fixed-prefix
// CHROM/POS/.../INFO portion of one record, generalized from the teacher's
// Marshal's fixed-field emission (marshal.go) to BCF2's typed, dictionary-
// indexed layout.
func writeSiteBlock(w *typedWriter, reg *Registry, cd *contigDictionary, sd *stringDictionary, h variant.Header, r variant.Record, nFormatKeys int) error {
	contigOff, err := cd.lookup(r.Contig())
	if err != nil {
		return err
	}
	w.writeInt32(int32(contigOff))
	w.writeInt32(int32(r.Start() - 1)) // BCF2 POS is 0-based
	w.writeInt32(int32(r.End() - r.Start() + 1))

	if q, ok := r.Quality(); ok {
		w.writeFloat32(float32(q))
	} else {
		w.writeFloat32(missingFloat32())
	}

	alleles := r.Alleles()
	nInfo := 0
	r.InfoIter(func(string, variant.DynValue) bool { nInfo++; return true })
	w.writeUint32(uint32(len(alleles))<<16 | uint32(nInfo))

	samples := h.Samples()
	w.writeUint32(uint32(nFormatKeys)<<24 | uint32(len(samples)))

	w.writeTypedString(r.ID())
	for _, a := range alleles {
		w.writeTypedString(a.Bases)
	}

	if err := writeFilterBlock(w, sd, r.FilterState()); err != nil {
		return err
	}

	if err := writeInfoBlock(w, reg, r); err != nil {
		return err
	}
	return nil
}

// writeFilterBlock encodes the FILTER column as a typed vector of dictionary
// offsets (spec.md §4.5 step 9): unfiltered is the typed-missing pattern,
// passed is a single-element vector naming PASS, applied is the vector of
// named filters in record order.
func writeFilterBlock(w *typedWriter, sd *stringDictionary, f variant.Filters) error {
	switch f.State {
	case variant.FilterUnfiltered:
		w.writeTypedMissingScalar(TypeInt8)
		return nil
	case variant.FilterPassed:
		off, err := sd.lookup("PASS")
		if err != nil {
			return err
		}
		w.writeTypedIntVector([]int32{int32(off)}, narrowestType(int32(off)))
		return nil
	default:
		offs := make([]int32, len(f.Names))
		t := TypeInt8
		for i, name := range f.Names {
			off, err := sd.lookup(name)
			if err != nil {
				return err
			}
			offs[i] = int32(off)
			t = promote(t, narrowestType(int32(off)))
		}
		w.writeTypedIntVector(offs, t)
		return nil
	}
}

// writeInfoBlock encodes every attribute present on r's InfoIter as a
// (fieldKey, value) pair in iteration order (spec.md §4.5 step 10).
func writeInfoBlock(w *typedWriter, reg *Registry, r variant.Record) error {
	var outerErr error
	r.InfoIter(func(key string, v variant.DynValue) bool {
		enc, ok := reg.site[key]
		if !ok {
			outerErr = variant.Errorf(variant.HeaderShape, "INFO key %q not declared in header", key)
			return false
		}
		enc.writeFieldKey(w)
		if err := enc.writeSite(w, r, v); err != nil {
			outerErr = err
			return false
		}
		return true
	})
	return outerErr
}
