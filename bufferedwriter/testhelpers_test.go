// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bufferedwriter

import (
	"sync"

	"github.com/grailbio/bcf2/variant"
)

// recordingWriter is a variant.Writer that records every Add/WriteHeader
// call it receives, optionally failing on a configured call.
type recordingWriter struct {
	mu        sync.Mutex
	headers   []variant.Header
	records   []variant.Record
	closed    bool
	failOnAdd int // 1-based Add call index to fail on; 0 disables
	addCount  int
}

func (w *recordingWriter) WriteHeader(h variant.Header) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.headers = append(w.headers, h)
	return nil
}

func (w *recordingWriter) Add(r variant.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.addCount++
	if w.failOnAdd != 0 && w.addCount == w.failOnAdd {
		return errFake
	}
	w.records = append(w.records, r)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *recordingWriter) snapshot() []variant.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]variant.Record, len(w.records))
	copy(out, w.records)
	return out
}

var errFake = fakeErr("fake write error")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

// simpleRecord is a minimal variant.Record used only to exercise contig/start
// ordering; every other accessor returns a zero value.
type simpleRecord struct {
	contig string
	start  int64
}

func (r *simpleRecord) Contig() string                              { return r.contig }
func (r *simpleRecord) Start() int64                                { return r.start }
func (r *simpleRecord) End() int64                                  { return r.start }
func (r *simpleRecord) Quality() (float64, bool)                    { return 0, false }
func (r *simpleRecord) ID() string                                  { return "." }
func (r *simpleRecord) Alleles() []variant.Allele                   { return []variant.Allele{{Bases: "A"}} }
func (r *simpleRecord) FilterState() variant.Filters                { return variant.Filters{} }
func (r *simpleRecord) InfoIter(yield func(string, variant.DynValue) bool) {}
func (r *simpleRecord) Genotypes() variant.GenotypesView            { return variant.GenotypesView{} }
func (r *simpleRecord) FormatKeys(h variant.Header) []string        { return nil }
func (r *simpleRecord) MaxPloidy(deflt int) int                     { return deflt }

var _ variant.Record = (*simpleRecord)(nil)
