// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import (
	"github.com/grailbio/bcf2/variant"
)

// stringDictionary is the C3 "Dictionary Builder" of spec.md §4.3: an
// injective map from INFO/FORMAT/FILTER id to a frozen, 0-based,
// insertion-ordered integer offset. Generalized from the teacher's
// compile-time FieldType/FieldNames enumeration (fieldtype.go) to a
// header-driven, dynamically-sized one.
type stringDictionary struct {
	offset map[string]int
	names  []string
}

// contigDictionary is the analogous frozen map from contig id to offset.
type contigDictionary struct {
	offset map[string]int
	ids    []string
}

// buildDictionaries enumerates h's canonical metadata order (h.SortedMetadata,
// the same sequence embedded into the file's header text) and assigns
// sequential offsets to every distinct INFO/FORMAT/FILTER id — the single
// string dictionary BCF2 shares across all three namespaces — plus a
// separate dictionary for every contig.
//
// A name may legitimately be declared in more than one category (DP as both
// an INFO total-depth field and a FORMAT per-sample field is the common
// case): such a reuse shares one dictionary offset across both
// declarations, it is not a duplicate. Only a repeat *within* the same
// category (two INFO lines, or two FORMAT lines, declaring the same id) is
// a HeaderShape error (spec.md §4.3 step 1).
func buildDictionaries(h variant.Header) (*stringDictionary, *contigDictionary, error) {
	sd := &stringDictionary{offset: make(map[string]int)}
	seenInCategory := map[string]map[string]bool{"FILTER": {}, "FORMAT": {}, "INFO": {}}
	add := func(category, id string) error {
		if seenInCategory[category][id] {
			return variant.Errorf(variant.HeaderShape, "duplicate %s id %q", category, id)
		}
		seenInCategory[category][id] = true
		if _, ok := sd.offset[id]; !ok {
			sd.offset[id] = len(sd.names)
			sd.names = append(sd.names, id)
		}
		return nil
	}
	// PASS must always be a resolvable dictionary entry for the FILTER
	// literal (spec.md §4.5 step 9), whether or not the header explicitly
	// declares a ##FILTER=<ID=PASS,...> line. It sorts ahead of every real
	// FILTER/FORMAT/INFO line (category "FILTER" ties broken by declaration
	// order), so it is assigned offset 0 before SortedMetadata is walked.
	sawPass := false
	for _, f := range h.Filters() {
		if f == "PASS" {
			sawPass = true
		}
	}
	if !sawPass {
		if err := add("FILTER", "PASS"); err != nil {
			return nil, nil, err
		}
	}
	for _, line := range h.SortedMetadata() {
		switch line.Category {
		case "FILTER", "FORMAT", "INFO":
			if err := add(line.Category, line.ID); err != nil {
				return nil, nil, err
			}
		}
	}

	cd := &contigDictionary{offset: make(map[string]int)}
	for _, c := range h.Contigs() {
		if _, ok := cd.offset[c.ID]; ok {
			return nil, nil, variant.Errorf(variant.HeaderShape, "duplicate contig id %q", c.ID)
		}
		cd.offset[c.ID] = len(cd.ids)
		cd.ids = append(cd.ids, c.ID)
	}
	return sd, cd, nil
}

// lookup returns id's dictionary offset, or a HeaderShape error naming the
// offending key (spec.md §4.3 guarantee).
func (d *stringDictionary) lookup(id string) (int, error) {
	off, ok := d.offset[id]
	if !ok {
		return 0, variant.Errorf(variant.HeaderShape, "undeclared header key %q", id)
	}
	return off, nil
}

func (d *contigDictionary) lookup(id string) (int, error) {
	off, ok := d.offset[id]
	if !ok {
		return 0, variant.Errorf(variant.HeaderShape, "undeclared contig %q", id)
	}
	return off, nil
}
