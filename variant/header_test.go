// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullHeader() *VariantHeader {
	return &VariantHeader{
		Info: []FieldDecl{
			{ID: "DP", Kind: KindInteger, Cardinality: CardinalityFixed, Number: 1, Description: "total depth"},
		},
		Format: []FieldDecl{
			{ID: "GT", Kind: KindString, Cardinality: CardinalityFixed, Number: 1, Description: "genotype"},
			{ID: "DP", Kind: KindInteger, Cardinality: CardinalityFixed, Number: 1, Description: "sample depth"},
		},
		ContigList:  []ContigDecl{{ID: "chr1", Length: 1000}, {ID: "chr2", Length: 2000}},
		FilterNames: []string{"LowQual"},
		SampleNames: []string{"S1", "S2"},
		ExtraLines:  []string{"##source=test"},
	}
}

func categoriesOf(lines []MetaLine) []string {
	cats := make([]string, len(lines))
	for i, l := range lines {
		cats[i] = l.Category
	}
	return cats
}

func TestSortedMetadataOrdersCategoriesAlphabetically(t *testing.T) {
	h := fullHeader()
	lines := h.SortedMetadata()

	// "FILTER" < "FORMAT" < "INFO" < "contig" < "other" by plain string
	// comparison (ASCII uppercase sorts before lowercase), which is the one
	// and only order buildDictionaries and TextHeader must agree on.
	assert.Equal(t,
		[]string{"FILTER", "FORMAT", "FORMAT", "INFO", "contig", "contig", "other"},
		categoriesOf(lines))
}

func TestSortedMetadataKeepsDeclarationOrderWithinCategory(t *testing.T) {
	h := fullHeader()
	lines := h.SortedMetadata()

	var formatIDs, contigIDs []string
	for _, l := range lines {
		switch l.Category {
		case "FORMAT":
			formatIDs = append(formatIDs, l.ID)
		case "contig":
			contigIDs = append(contigIDs, l.ID)
		}
	}
	assert.Equal(t, []string{"GT", "DP"}, formatIDs)
	assert.Equal(t, []string{"chr1", "chr2"}, contigIDs)
}

func TestSortedMetadataPopulatesID(t *testing.T) {
	h := fullHeader()
	ids := map[string]bool{}
	for _, l := range h.SortedMetadata() {
		if l.Category != "other" {
			ids[l.ID] = true
		}
	}
	for _, want := range []string{"DP", "GT", "LowQual", "chr1", "chr2"} {
		assert.True(t, ids[want], "missing ID %q in SortedMetadata output", want)
	}
}

func TestTextHeaderRendersFileformatAndChromLine(t *testing.T) {
	h := fullHeader()
	text := h.TextHeader()

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "##fileformat=VCFv4.2", lines[0])

	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\tS2"))
}

func TestTextHeaderOmitsFormatColumnWithoutSamples(t *testing.T) {
	h := &VariantHeader{ContigList: []ContigDecl{{ID: "chr1", Length: 100}}}
	text := h.TextHeader()
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	last := lines[len(lines)-1]
	assert.Equal(t, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO", last)
}

func TestTextHeaderOrderMatchesSortedMetadata(t *testing.T) {
	h := fullHeader()
	text := h.TextHeader()
	for _, l := range h.SortedMetadata() {
		assert.True(t, strings.Contains(text, l.Text), "header text missing line %q", l.Text)
	}
}

func TestHeaderAccessorsReturnUnderlyingSlices(t *testing.T) {
	h := fullHeader()
	assert.Equal(t, h.Info, h.InfoLines())
	assert.Equal(t, h.Format, h.FormatLines())
	assert.Equal(t, h.ContigList, h.Contigs())
	assert.Equal(t, h.FilterNames, h.Filters())
	assert.Equal(t, h.SampleNames, h.Samples())
}
