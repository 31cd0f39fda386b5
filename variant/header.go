// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant

import (
	"fmt"
	"sort"
	"strings"
)

// VariantHeader is the reference, in-memory implementation of Header.
type VariantHeader struct {
	Info        []FieldDecl
	Format      []FieldDecl
	ContigList  []ContigDecl
	FilterNames []string
	SampleNames []string
	// ExtraLines holds any other passthrough header lines (e.g. ##source=,
	// ##reference=) in the order they should render, rendered verbatim.
	ExtraLines []string
}

var _ Header = (*VariantHeader)(nil)

func (h *VariantHeader) InfoLines() []FieldDecl   { return h.Info }
func (h *VariantHeader) FormatLines() []FieldDecl { return h.Format }
func (h *VariantHeader) Contigs() []ContigDecl    { return h.ContigList }
func (h *VariantHeader) Filters() []string        { return h.FilterNames }
func (h *VariantHeader) Samples() []string         { return h.SampleNames }

func kindString(k Kind) string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindFlag:
		return "Flag"
	case KindCharacter:
		return "Character"
	case KindString:
		return "String"
	default:
		return "String"
	}
}

func numberString(d FieldDecl) string {
	switch d.Cardinality {
	case CardinalityFixed:
		return fmt.Sprintf("%d", d.Number)
	case CardinalityPerAllele:
		return "A"
	case CardinalityPerGenotype:
		return "G"
	default:
		return "."
	}
}

// SortedMetadata renders the header's metadata lines in the stable,
// canonical order spec.md §3 calls for: lines are grouped by category and
// the groups are ordered by sorting the category strings themselves
// ("FILTER" < "FORMAT" < "INFO" < "contig" < "other"), with each category's
// own lines kept in declaration order (sort.SliceStable). This is the one
// and only source of the header's canonical metadata order: C3's
// buildDictionaries walks this same sequence when assigning string-
// dictionary offsets, so the offsets it assigns always agree with the
// order a reader re-deriving them from the embedded header text would see.
func (h *VariantHeader) SortedMetadata() []MetaLine {
	lines := make([]MetaLine, 0, len(h.Info)+len(h.Format)+len(h.FilterNames)+len(h.ContigList)+len(h.ExtraLines))
	for _, extra := range h.ExtraLines {
		lines = append(lines, MetaLine{Category: "other", Text: extra})
	}
	for _, d := range h.Info {
		lines = append(lines, MetaLine{
			Category: "INFO",
			ID:       d.ID,
			Text: fmt.Sprintf("##INFO=<ID=%s,Number=%s,Type=%s,Description=%q>",
				d.ID, numberString(d), kindString(d.Kind), d.Description),
		})
	}
	for _, name := range h.FilterNames {
		lines = append(lines, MetaLine{
			Category: "FILTER",
			ID:       name,
			Text:     fmt.Sprintf("##FILTER=<ID=%s,Description=%q>", name, "filter"),
		})
	}
	for _, d := range h.Format {
		lines = append(lines, MetaLine{
			Category: "FORMAT",
			ID:       d.ID,
			Text: fmt.Sprintf("##FORMAT=<ID=%s,Number=%s,Type=%s,Description=%q>",
				d.ID, numberString(d), kindString(d.Kind), d.Description),
		})
	}
	for _, c := range h.ContigList {
		lines = append(lines, MetaLine{
			Category: "contig",
			ID:       c.ID,
			Text:     fmt.Sprintf("##contig=<ID=%s,length=%d>", c.ID, c.Length),
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Category < lines[j].Category })
	return lines
}

// TextHeader renders a minimal, complete VCF-format textual header: the
// fileformat line, the sorted metadata lines, and the #CHROM column header
// line. This is the "header bytes" the BCF2 file frame embeds verbatim
// (spec.md §3 "File frame"); it does not attempt to match any particular VCF
// writer's exact formatting choices, which spec.md §1 places out of scope.
func (h *VariantHeader) TextHeader() string {
	var b strings.Builder
	b.WriteString("##fileformat=VCFv4.2\n")
	for _, line := range h.SortedMetadata() {
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	b.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	if len(h.SampleNames) > 0 {
		b.WriteString("\tFORMAT")
		for _, s := range h.SampleNames {
			b.WriteByte('\t')
			b.WriteString(s)
		}
	}
	b.WriteByte('\n')
	return b.String()
}
