// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bcf2

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/bcf2/variant"
)

type fakeIndexBuilder struct {
	observed  []uint64
	failAfter int // Observe fails starting at this call count, 0 disables
	calls     int
	finalized bool
	finalErr  error
}

func (b *fakeIndexBuilder) Observe(r variant.Record, offset uint64) error {
	b.calls++
	if b.failAfter != 0 && b.calls >= b.failAfter {
		return errors.New("observe failed")
	}
	b.observed = append(b.observed, offset)
	return nil
}

func (b *fakeIndexBuilder) Finalize(endOffset uint64) (variant.IndexBlob, error) {
	b.finalized = true
	if b.finalErr != nil {
		return variant.IndexBlob{}, b.finalErr
	}
	return variant.IndexBlob{Bytes: []byte("blob")}, nil
}

func TestIndexingWriterObservesOffsetsInOrder(t *testing.T) {
	sink := &memSink{}
	builder := bcf2TestWriterBuilder(t, sink)
	fib := &fakeIndexBuilder{}
	w := newIndexingWriter(builder, fib, nil)

	require.NoError(t, w.WriteHeader(basicHeader()))
	require.NoError(t, w.Add(biallelicSNP()))
	require.NoError(t, w.Add(biallelicSNP()))
	require.NoError(t, w.Close())

	assert.Len(t, fib.observed, 2)
	assert.True(t, fib.observed[0] < fib.observed[1])
	assert.True(t, fib.finalized)
}

func TestIndexingWriterAbandonsOnObserveFailureWithoutFailingTheWrite(t *testing.T) {
	sink := &memSink{}
	builder := bcf2TestWriterBuilder(t, sink)
	fib := &fakeIndexBuilder{failAfter: 1}
	w := newIndexingWriter(builder, fib, nil)

	require.NoError(t, w.WriteHeader(basicHeader()))
	require.NoError(t, w.Add(biallelicSNP())) // Observe fails, but Add still succeeds
	require.NoError(t, w.Close())              // Finalize is skipped once abandoned
	assert.False(t, fib.finalized)
}

func TestIndexingWriterFinalizeFailureIsFatal(t *testing.T) {
	sink := &memSink{}
	builder := bcf2TestWriterBuilder(t, sink)
	fib := &fakeIndexBuilder{finalErr: errors.New("finalize failed")}
	w := newIndexingWriter(builder, fib, nil)

	require.NoError(t, w.WriteHeader(basicHeader()))
	require.NoError(t, w.Add(biallelicSNP()))
	err := w.Close()
	require.Error(t, err)
	assert.True(t, variant.Is(variant.IndexerUnavailable, err))
}

func TestIndexingWriterWritesFinalizedBlobToSink(t *testing.T) {
	outSink := &memSink{}
	indexSink := &memSink{}
	builder := bcf2TestWriterBuilder(t, outSink)
	fib := &fakeIndexBuilder{}
	w := newIndexingWriter(builder, fib, indexSink)

	require.NoError(t, w.WriteHeader(basicHeader()))
	require.NoError(t, w.Add(biallelicSNP()))
	require.NoError(t, w.Close())
	assert.Equal(t, []byte("blob"), indexSink.buf)
	assert.True(t, indexSink.closed)
}

// bcf2TestWriterBuilder builds a bare *VariantWriter over sink, used by
// index_test.go to exercise indexingWriter without going through
// WriterBuilder (which this package's own tests shouldn't depend on for
// unrelated coverage).
func bcf2TestWriterBuilder(t *testing.T, sink variant.OutputByteSink) *VariantWriter {
	t.Helper()
	return &VariantWriter{sink: sink}
}
