// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package gvindex implements the S1 reference variant.IndexBuilder: a
// compact, gzip-wrapped mapping from genomic position to BCF2 file byte
// offset, adapted from the BAM-oriented .gbai format (encoding/bam's
// GIndex) to flat record-framed files with no virtual-offset concept.
package gvindex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/bcf2/variant"
)

// gvix1Magic is the GVIX1 file signature: "GVIX1" followed by 11 bytes
// distinguishing it from the BAM-era .gbai magic it's descended from.
var gvix1Magic = []byte{
	'G', 'V', 'I', 'X', '1', 0x9a, 0x17, 0xe4,
	0x52, 0x60, 0xd1, 0x0c, 0x84, 0x3d, 0x77, 0x01,
}

// Entry is one on-disk index record: the contig (by dictionary offset, not
// name, to keep entries fixed-width), 0-based start, sequence number
// disambiguating ties at the same (contig, start), and the file byte offset
// of the record's frame.
type Entry struct {
	ContigOffset int32
	Start        int32
	Seq          uint32
	FileOffset   uint64
}

func compareKey(a, b *Entry) int {
	if a.ContigOffset != b.ContigOffset {
		return int(a.ContigOffset) - int(b.ContigOffset)
	}
	if a.Start != b.Start {
		return int(a.Start - b.Start)
	}
	return int(int64(a.Seq) - int64(b.Seq))
}

// Index is a finalized, queryable GVIX1 index: entries in ascending
// (ContigOffset, Start, Seq) order, plus the contig name table needed to
// translate a contig name to its ContigOffset.
type Index struct {
	contigOffset map[string]int32
	entries      []Entry
}

// Parse decodes a GVIX1 blob previously produced by Builder.Finalize.
func Parse(b []byte) (*Index, error) {
	gz, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("gvindex: %v", err)
	}
	defer gz.Close()
	magic := make([]byte, len(gvix1Magic))
	if _, err := readFull(gz, magic); err != nil {
		return nil, fmt.Errorf("gvindex: reading magic: %v", err)
	}
	if !bytes.Equal(magic, gvix1Magic) {
		return nil, fmt.Errorf("gvindex: bad magic")
	}
	var nameCount uint32
	if err := binary.Read(gz, binary.LittleEndian, &nameCount); err != nil {
		return nil, fmt.Errorf("gvindex: reading name count: %v", err)
	}
	contigOffset := make(map[string]int32, nameCount)
	for i := uint32(0); i < nameCount; i++ {
		var nameLen uint32
		if err := binary.Read(gz, binary.LittleEndian, &nameLen); err != nil {
			return nil, fmt.Errorf("gvindex: reading name length: %v", err)
		}
		nameBytes := make([]byte, nameLen)
		if _, err := readFull(gz, nameBytes); err != nil {
			return nil, fmt.Errorf("gvindex: reading name: %v", err)
		}
		contigOffset[string(nameBytes)] = int32(i)
	}
	var entries []Entry
	for {
		var e Entry
		if err := binary.Read(gz, binary.LittleEndian, &e); err != nil {
			break
		}
		entries = append(entries, e)
	}
	return &Index{contigOffset: contigOffset, entries: entries}, nil
}

// ContigOffset resolves a contig name to its index-local offset.
func (idx *Index) ContigOffset(name string) (int32, bool) {
	off, ok := idx.contigOffset[name]
	return off, ok
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// RecordOffset returns the file offset from which, reading forward, the
// reader will eventually reach a record at (contigOffset, start) or later,
// mirroring encoding/bam's GIndex.RecordOffset bisection exactly.
func (idx *Index) RecordOffset(contigOffset, start int32) (uint64, bool) {
	if len(idx.entries) == 0 {
		return 0, false
	}
	target := Entry{ContigOffset: contigOffset, Start: start}
	x := sort.Search(len(idx.entries), func(i int) bool {
		return compareKey(&idx.entries[i], &target) >= 0
	})
	if x == len(idx.entries) {
		return idx.entries[x-1].FileOffset, true
	}
	if compareKey(&idx.entries[x], &target) > 0 && x > 0 {
		x--
	}
	return idx.entries[x].FileOffset, true
}

// Builder implements variant.IndexBuilder: it emits one Entry per Observe
// call; records sharing a (contig, start) pair get separate Entries told
// apart by an increasing Seq. Builder assigns its own contig
// name offsets on first sight (first-seen order, independent of the
// writer's header dictionary) and persists the name table alongside the
// entries so Parse is self-contained.
type Builder struct {
	contigOffset map[string]int32
	contigNames  []string
	entries      []Entry
	lastKey      Entry
	haveLast     bool
	seq          uint32
}

func NewBuilder() *Builder {
	return &Builder{contigOffset: make(map[string]int32)}
}

func (b *Builder) offsetFor(name string) int32 {
	if off, ok := b.contigOffset[name]; ok {
		return off
	}
	off := int32(len(b.contigNames))
	b.contigOffset[name] = off
	b.contigNames = append(b.contigNames, name)
	return off
}

func (b *Builder) Observe(r variant.Record, fileOffset uint64) error {
	contigOff := b.offsetFor(r.Contig())
	start := int32(r.Start() - 1)
	if b.haveLast && b.lastKey.ContigOffset == contigOff && b.lastKey.Start == start {
		b.seq++
	} else {
		b.seq = 0
	}
	e := Entry{ContigOffset: contigOff, Start: start, Seq: b.seq, FileOffset: fileOffset}
	b.entries = append(b.entries, e)
	b.lastKey = e
	b.haveLast = true
	return nil
}

// Finalize gzip-compresses the contig name table and accumulated entries
// behind the GVIX1 magic. The entries are already in ascending order
// because Observe is called in write order and BCF2 requires position-
// sorted input for indexing to be meaningful.
func (b *Builder) Finalize(endOffset uint64) (variant.IndexBlob, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(gvix1Magic); err != nil {
		return variant.IndexBlob{}, err
	}
	if err := binary.Write(gz, binary.LittleEndian, uint32(len(b.contigNames))); err != nil {
		return variant.IndexBlob{}, err
	}
	for _, name := range b.contigNames {
		if err := binary.Write(gz, binary.LittleEndian, uint32(len(name))); err != nil {
			return variant.IndexBlob{}, err
		}
		if _, err := gz.Write([]byte(name)); err != nil {
			return variant.IndexBlob{}, err
		}
	}
	for i := range b.entries {
		if err := binary.Write(gz, binary.LittleEndian, &b.entries[i]); err != nil {
			return variant.IndexBlob{}, err
		}
	}
	if err := gz.Close(); err != nil {
		return variant.IndexBlob{}, err
	}
	return variant.IndexBlob{Bytes: buf.Bytes()}, nil
}
