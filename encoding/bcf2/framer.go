// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import (
	"github.com/grailbio/bcf2/variant"
)

// recordFramer is the C7 "Record Framer" of spec.md §4.7: it drives the
// site writer (C5) and genotype writer (C6) into their own typed buffers,
// then concatenates "u32 siteLen | u32 gtLen | siteBytes | gtBytes" exactly
// once per record, mirroring the teacher's shardedbam.go position-tracking
// shape generalized to BCF2's two-part frame.
type recordFramer struct {
	reg       *Registry
	cd        *contigDictionary
	sd        *stringDictionary
	header    variant.Header
	fp        uint64
	skipGT    bool
	siteBuf   typedWriter
	gtBuf     typedWriter
	frameBuf  typedWriter
	nextBytes uint64 // running count of bytes framed so far
}

func newRecordFramer(reg *Registry, cd *contigDictionary, sd *stringDictionary, h variant.Header, skipGT bool) *recordFramer {
	return &recordFramer{
		reg:    reg,
		cd:     cd,
		sd:     sd,
		header: h,
		fp:     headerFingerprint(h),
		skipGT: skipGT,
	}
}

// frame encodes r into one length-prefixed BCF2 record frame. The returned
// slice is a fresh copy owned by the caller; frame reuses only its internal
// scratch buffers across calls, so the bytes stay valid after the next call.
// frame also returns r's offset as recorded
// before this call (the byte position this record's frame will occupy once
// written), for C8's indexing wrapper to observe.
func (f *recordFramer) frame(r variant.Record) (framed []byte, recordOffset uint64, err error) {
	recordOffset = f.nextBytes

	keys := r.FormatKeys(f.header)
	if err := writeSiteBlock(&f.siteBuf, f.reg, f.cd, f.sd, f.header, r, len(keys)); err != nil {
		f.siteBuf.buf.Reset()
		return nil, 0, err
	}
	siteBytes := f.siteBuf.extractAndReset()

	var gtBytes []byte
	if f.skipGT {
		gtBytes = nil
	} else {
		if err := writeGenotypeBlock(&f.gtBuf, f.reg, f.header, r, f.fp, keys); err != nil {
			f.gtBuf.buf.Reset()
			return nil, 0, err
		}
		gtBytes = f.gtBuf.extractAndReset()
	}

	f.frameBuf.buf.Reset()
	f.frameBuf.writeUint32(uint32(len(siteBytes)))
	f.frameBuf.writeUint32(uint32(len(gtBytes)))
	f.frameBuf.buf.Write(siteBytes)
	f.frameBuf.buf.Write(gtBytes)
	framed = f.frameBuf.extractAndReset()

	f.nextBytes += uint64(len(framed))
	return framed, recordOffset, nil
}
