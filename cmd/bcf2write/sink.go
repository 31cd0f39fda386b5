// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"compress/flate"
	"context"
	"io"

	"github.com/grailbio/base/file"

	"github.com/grailbio/bcf2/encoding/bgzf"
	"github.com/grailbio/bcf2/variant"
)

// fileSink adapts a github.com/grailbio/base/file.File, opened for writing,
// to variant.OutputByteSink. It is the one place this binary touches
// grailbio-base/file directly; everything upstream of it only knows about
// the narrower OutputByteSink contract (spec.md §6), so swapping in a
// different collaborator (a local *os.File, an in-memory buffer for tests)
// never needs to touch encoding/bcf2.
//
// file.Open/file.Create dispatch on the path's scheme (plain paths use the
// local implementation; "s3://..." paths use whatever implementation was
// registered for "s3" in main's registerS3 — grailbio-base/file/s3file,
// wired in by this binary, not by the library), so callers get transparent
// local/S3 output selection for free.
type fileSink struct {
	ctx context.Context
	f   file.File
	w   io.Writer
	pos uint64
}

func newFileSink(ctx context.Context, path string) (*fileSink, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	return &fileSink{ctx: ctx, f: f, w: f.Writer(ctx)}, nil
}

func (s *fileSink) WriteAll(p []byte) error {
	n, err := s.w.Write(p)
	s.pos += uint64(n)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

func (s *fileSink) Flush() error { return nil }
func (s *fileSink) Close() error { return s.f.Close(s.ctx) }
func (s *fileSink) Position() uint64 { return s.pos }

var _ variant.OutputByteSink = (*fileSink)(nil)

// sinkAsWriter adapts a variant.OutputByteSink to a plain io.Writer, for
// handing to bgzf.NewWriter (which predates, and doesn't know about,
// OutputByteSink).
type sinkAsWriter struct{ sink variant.OutputByteSink }

func (w sinkAsWriter) Write(p []byte) (int, error) {
	if err := w.sink.WriteAll(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// bgzfSink wraps an OutputByteSink with block-gzip (encoding/bgzf)
// compression (spec.md §4.7's optional bgzf framing). Position reports the
// underlying sink's compressed byte count, which is meaningful as a
// resumption point for a bgzf reader but not as a record-frame offset, so
// bgzfSink and on-the-fly indexing (C8) are mutually exclusive in this
// binary's flag validation.
type bgzfSink struct {
	under variant.OutputByteSink
	bw    *bgzf.Writer
}

func newBGZFSink(under variant.OutputByteSink) (*bgzfSink, error) {
	bw, err := bgzf.NewWriter(sinkAsWriter{under}, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	return &bgzfSink{under: under, bw: bw}, nil
}

func (s *bgzfSink) WriteAll(p []byte) error {
	_, err := s.bw.Write(p)
	return err
}

func (s *bgzfSink) Flush() error { return nil }

func (s *bgzfSink) Close() error {
	if err := s.bw.Close(); err != nil {
		return err
	}
	return s.under.Close()
}

func (s *bgzfSink) Position() uint64 { return s.under.Position() }

var _ variant.OutputByteSink = (*bgzfSink)(nil)
