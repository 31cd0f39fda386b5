// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import (
	"github.com/grailbio/base/log"

	"github.com/grailbio/bcf2/variant"
)

// offsetAwareWriter is implemented by the core writer so indexingWriter can
// observe each record's file offset without the index builder needing to
// know anything about BCF2 framing.
type offsetAwareWriter interface {
	variant.Writer
	Position() uint64
}

// indexingWriter is the C8 "Indexing Wrapper" of spec.md §4.8: it decorates
// the core writer, feeding every record and its pre-write file offset to a
// variant.IndexBuilder, and writes the finalized index blob when the
// wrapped writer closes successfully.
//
// A builder that fails mid-stream (Observe returns an error) is considered
// a non-fatal condition: indexing is abandoned for the rest of the stream
// (the underlying BCF2 output is unaffected) and a warning is logged,
// mirroring spec.md §4.8's "indexing failures never fail the write".
// Finalize failing at Close, by contrast, is fatal: a completed write with
// a silently-absent index would be worse than a failed Close.
type indexingWriter struct {
	inner     offsetAwareWriter
	builder   variant.IndexBuilder
	indexSink variant.OutputByteSink // may be nil: index kept in memory only
	abandoned bool
}

func newIndexingWriter(inner offsetAwareWriter, builder variant.IndexBuilder, indexSink variant.OutputByteSink) *indexingWriter {
	return &indexingWriter{inner: inner, builder: builder, indexSink: indexSink}
}

func (w *indexingWriter) WriteHeader(h variant.Header) error {
	return w.inner.WriteHeader(h)
}

func (w *indexingWriter) Add(r variant.Record) error {
	offset := w.inner.Position()
	if err := w.inner.Add(r); err != nil {
		return err
	}
	if w.abandoned {
		return nil
	}
	if err := w.builder.Observe(r, offset); err != nil {
		log.Error.Printf("bcf2: index builder failed, abandoning index for remainder of stream: %v", err)
		w.abandoned = true
	}
	return nil
}

func (w *indexingWriter) Close() error {
	if err := w.inner.Close(); err != nil {
		return err
	}
	if w.abandoned {
		return nil
	}
	blob, err := w.builder.Finalize(w.inner.Position())
	if err != nil {
		return variant.Wrap(variant.IndexerUnavailable, err, "bcf2: finalizing index")
	}
	if w.indexSink == nil {
		return nil
	}
	if err := w.indexSink.WriteAll(blob.Bytes); err != nil {
		return variant.Wrap(variant.Io, err, "bcf2: writing index")
	}
	if err := w.indexSink.Flush(); err != nil {
		return variant.Wrap(variant.Io, err, "bcf2: flushing index")
	}
	return w.indexSink.Close()
}
