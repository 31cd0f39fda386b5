// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant

import "sort"

// VariantRecord is the reference, in-memory implementation of Record.
// Callers that already have their own record representation need only
// implement the Record interface directly; VariantRecord exists so the
// encoder has something concrete to build and test against, and so small
// tools (cmd/bcf2write) have a convenient literal record type.
type VariantRecord struct {
	ContigID string
	StartPos int64 // 1-based, inclusive
	EndPos   int64 // 1-based, inclusive
	IDField  string
	AllelesList []Allele
	Qual      float64
	HasQual   bool
	Filter    Filters
	Info      map[string]DynValue
	// InfoOrder, if non-nil, fixes InfoIter's iteration order; otherwise
	// keys are visited in sorted order for determinism.
	InfoOrder []string
	GTView    GenotypesView
}

var _ Record = (*VariantRecord)(nil)

func (r *VariantRecord) Contig() string  { return r.ContigID }
func (r *VariantRecord) Start() int64    { return r.StartPos }
func (r *VariantRecord) End() int64      { return r.EndPos }
func (r *VariantRecord) ID() string      { return r.IDField }
func (r *VariantRecord) Alleles() []Allele { return r.AllelesList }

func (r *VariantRecord) Quality() (float64, bool) {
	if !r.HasQual {
		return 0, false
	}
	return r.Qual, true
}

func (r *VariantRecord) FilterState() Filters { return r.Filter }

func (r *VariantRecord) Genotypes() GenotypesView { return r.GTView }

func (r *VariantRecord) InfoIter(yield func(key string, v DynValue) bool) {
	order := r.InfoOrder
	if order == nil {
		order = make([]string, 0, len(r.Info))
		for k := range r.Info {
			order = append(order, k)
		}
		sort.Strings(order)
	}
	for _, k := range order {
		v, ok := r.Info[k]
		if !ok {
			continue
		}
		if !yield(k, v) {
			return
		}
	}
}

// FormatKeys returns the FORMAT keys this record's genotypes use, in the
// header's FORMAT declaration order restricted to keys actually present on
// at least one sample (GT is first when any genotype carries alleles,
// matching BCF2's conventional key ordering). For a lazy view it returns
// every declared FORMAT key in declaration order.
func (r *VariantRecord) FormatKeys(h Header) []string {
	if r.GTView.IsLazy() {
		// The caller is expected to have recorded which keys a lazy payload
		// covers out of band (e.g. alongside the fingerprint); for the
		// reference implementation we fall back to declared FORMAT order.
		keys := make([]string, 0, len(h.FormatLines()))
		for _, decl := range h.FormatLines() {
			keys = append(keys, decl.ID)
		}
		return keys
	}
	present := make(map[string]bool)
	hasAny := false
	for _, gt := range r.GTView.Decoded {
		hasAny = true
		if gt.Alleles != nil {
			present["GT"] = true
		}
		if gt.FT != "" {
			present["FT"] = true
		}
		for k := range gt.Fields {
			present[k] = true
		}
	}
	if !hasAny {
		return nil
	}
	keys := make([]string, 0, len(present)+1)
	if present["GT"] {
		keys = append(keys, "GT")
	}
	for _, decl := range h.FormatLines() {
		if decl.ID == "GT" {
			continue
		}
		if present[decl.ID] {
			keys = append(keys, decl.ID)
		}
	}
	return keys
}

// MaxPloidy returns the maximum ploidy across this record's decoded
// genotypes, or deflt if there are none.
func (r *VariantRecord) MaxPloidy(deflt int) int {
	max := 0
	found := false
	for _, gt := range r.GTView.Decoded {
		if !found || gt.Ploidy > max {
			max = gt.Ploidy
			found = true
		}
	}
	if !found {
		return deflt
	}
	return max
}
