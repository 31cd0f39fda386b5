// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import "github.com/grailbio/bcf2/variant"

// RecordEncoder is the sink-independent half of VariantWriter: the
// dictionaries (C3), field-encoder registry (C4), and record framer (C7)
// built once from a header. It exists so collaborators that manage their
// own output placement — notably bufferedwriter/shardedbcf2, which encodes
// shards into independent in-memory buffers before reassembly — can reuse
// the exact same encoding path VariantWriter uses internally, without
// going through a full Writer lifecycle per shard.
type RecordEncoder struct {
	header variant.Header
	framer *recordFramer
}

// NewRecordEncoder builds the dictionaries and registry for h. skipGenotypes
// mirrors DoNotWriteGenotypes: when true, EncodeFrame always emits a
// zero-length genotypes block.
func NewRecordEncoder(h variant.Header, skipGenotypes bool) (*RecordEncoder, error) {
	sd, cd, err := buildDictionaries(h)
	if err != nil {
		return nil, err
	}
	reg, err := newRegistry(h, sd)
	if err != nil {
		return nil, err
	}
	return &RecordEncoder{
		header: h,
		framer: newRecordFramer(reg, cd, sd, h, skipGenotypes),
	}, nil
}

// EncodeHeaderFrame renders the BCF2 file-level header frame: magic,
// version, u32 length, header text (spec.md §4.7).
func EncodeHeaderFrame(h variant.Header) []byte {
	text := renderHeaderText(h)
	var hw typedWriter
	hw.buf.Write(magic[:])
	hw.writeUint32(uint32(len(text)))
	hw.buf.WriteString(text)
	return hw.extractAndReset()
}

// EncodeFrame encodes r into one length-prefixed BCF2 record frame, reusing
// e's registry and dictionaries. The returned slice is a fresh copy owned by
// the caller and stays valid across later EncodeFrame calls.
func (e *RecordEncoder) EncodeFrame(r variant.Record) ([]byte, error) {
	if err := validateRecordShape(r); err != nil {
		return nil, err
	}
	framed, _, err := e.framer.frame(r)
	return framed, err
}
