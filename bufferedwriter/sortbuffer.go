// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bufferedwriter implements the two ordering/concurrency stages
// that compose around the core BCF2 writer per the pipeline's top-down data
// flow: SortBuffer (a bounded-window reordering stage) and AsyncWriter (an
// asynchronous queueing stage). Both wrap, and are wrapped by, anything
// satisfying variant.Writer.
package bufferedwriter

import (
	"sync"

	"github.com/biogo/store/llrb"

	"github.com/grailbio/bcf2/variant"
)

// sortKey orders buffered records by (contig, start), with a monotonic
// sequence number breaking ties in arrival order so records sharing a
// start position keep their relative arrival order (a stable sort).
type sortKey struct {
	contig string
	start  int64
	seq    uint64
}

type sortNode struct {
	key sortKey
	rec variant.Record
}

// Compare implements llrb.Comparable. Contig names are compared lexically;
// a SortBuffer only ever holds records of one contig at a time (a contig
// change flushes it), so this comparison never decides the order in which
// buffered records are emitted.
func (n *sortNode) Compare(other llrb.Comparable) int {
	o := other.(*sortNode)
	if n.key.contig != o.key.contig {
		if n.key.contig < o.key.contig {
			return -1
		}
		return 1
	}
	if n.key.start != o.key.start {
		if n.key.start < o.key.start {
			return -1
		}
		return 1
	}
	if n.key.seq < o.key.seq {
		return -1
	} else if n.key.seq > o.key.seq {
		return 1
	}
	return 0
}

// SortBuffer is the C9 "Sort Buffer": a bounded-window reordering stage
// that tolerates records arriving up to window positions behind the
// highest start seen so far on the current contig. A record further out of
// order than that is an Ordering error. Records are flushed to the wrapped
// Writer once no further record could arrive to precede them, and the
// remainder is drained in order on Close.
//
// A SortBuffer instance is tied to a single contig's worth of ordering at a
// time; a change of contig flushes the buffer fully, since BCF2 files are
// contig-major (spec.md §3).
type SortBuffer struct {
	inner  variant.Writer
	window int64

	mu        sync.Mutex
	tree      *llrb.Tree
	seq       uint64
	curContig string
	haveCurr  bool
	maxStart  int64
}

// NewSortBuffer wraps inner with a reordering window of window positions.
func NewSortBuffer(inner variant.Writer, window int64) *SortBuffer {
	return &SortBuffer{inner: inner, window: window, tree: &llrb.Tree{}}
}

func (sb *SortBuffer) WriteHeader(h variant.Header) error {
	return sb.inner.WriteHeader(h)
}

func (sb *SortBuffer) Add(r variant.Record) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	contig := r.Contig()
	start := r.Start()
	if !sb.haveCurr || contig != sb.curContig {
		if err := sb.flushAllLocked(); err != nil {
			return err
		}
		sb.curContig = contig
		sb.haveCurr = true
		sb.maxStart = start
	}

	watermark := sb.maxStart - sb.window
	if start < watermark {
		return variant.ErrorfAt(variant.Ordering, contig, start,
			"record precedes reordering window: start %d < watermark %d (window %d, high water %d)",
			start, watermark, sb.window, sb.maxStart)
	}
	if start > sb.maxStart {
		sb.maxStart = start
	}

	sb.seq++
	sb.tree.Insert(&sortNode{key: sortKey{contig, start, sb.seq}, rec: r})
	return sb.flushReadyLocked()
}

// flushReadyLocked writes every buffered record whose start is no longer
// within reach of the reordering window.
func (sb *SortBuffer) flushReadyLocked() error {
	watermark := sb.maxStart - sb.window
	for sb.tree.Len() > 0 {
		min := sb.tree.Min()
		n := min.(*sortNode)
		if n.key.start > watermark {
			break
		}
		sb.tree.DeleteMin()
		if err := sb.inner.Add(n.rec); err != nil {
			return err
		}
	}
	return nil
}

func (sb *SortBuffer) flushAllLocked() error {
	for sb.tree.Len() > 0 {
		min := sb.tree.Min()
		n := min.(*sortNode)
		sb.tree.DeleteMin()
		if err := sb.inner.Add(n.rec); err != nil {
			return err
		}
	}
	return nil
}

// Close drains any records still buffered within the window, in sorted
// order, then closes the wrapped Writer.
func (sb *SortBuffer) Close() error {
	sb.mu.Lock()
	err := sb.flushAllLocked()
	sb.mu.Unlock()
	if err != nil {
		return err
	}
	return sb.inner.Close()
}
