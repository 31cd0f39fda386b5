// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package shardedbcf2 implements a parallel-shard BCF2 writer: independent
// goroutines each encode their own shard of records into a byte buffer, and
// a single writer goroutine reassembles the shards in order onto the
// output sink. This is a structural port of encoding/bam's
// ShardedBAMWriter/ShardedBAMCompressor (shardedbam.go) from BAM's
// bgzf-block shards to flat BCF2 record-frame shards.
package shardedbcf2

import (
	"bytes"
	"io"
	"sync"

	"github.com/grailbio/base/syncqueue"

	"github.com/grailbio/bcf2/encoding/bcf2"
	"github.com/grailbio/bcf2/variant"
)

// shard holds one shard's encoded bytes, tagged with its sequence number so
// ShardedWriter can reassemble shards in order regardless of completion
// order.
type shard struct {
	num int
	buf bytes.Buffer
}

// Compressor accumulates one shard's worth of encoded records. Each
// Compressor owns its own RecordEncoder (built from the same header every
// other Compressor on the same ShardedWriter uses), so multiple Compressors
// can encode their shards concurrently with no shared mutable state: a
// RecordEncoder's scratch buffers are not safe for concurrent use, mirroring
// the single-writer-goroutine rule of encoding/bcf2's typedWriter
// (spec.md §3).
type Compressor struct {
	writer *ShardedWriter
	enc    *bcf2.RecordEncoder
	cur    *shard
}

// StartShard begins a new shard numbered shardNum (0-based). Calling
// StartShard while a previous shard is still open is a programmer error.
func (c *Compressor) StartShard(shardNum int) {
	if c.cur != nil {
		panic("shardedbcf2: existing shard still in progress")
	}
	// shard 0 is reserved for the file header (spec.md §4.7 "File
	// framing"), so user-visible shard numbers are offset by one
	// internally, mirroring the teacher's shardNum+1 convention.
	c.cur = &shard{num: shardNum + 1}
}

// AddRecord encodes r with this Compressor's own RecordEncoder and appends
// the resulting frame bytes to this shard's buffer.
func (c *Compressor) AddRecord(r variant.Record) error {
	framed, err := c.enc.EncodeFrame(r)
	if err != nil {
		return err
	}
	c.cur.buf.Write(framed)
	return nil
}

// CloseShard finalizes the current shard and hands it to the ShardedWriter
// for reassembly, blocking if the writer's reorder window is full.
func (c *Compressor) CloseShard() error {
	s := c.cur
	c.cur = nil
	return c.writer.queue.Insert(s.num, s)
}

// ShardedWriter reassembles shards produced by one or more Compressors into
// w in shard-number order, using a syncqueue.OrderedQueue exactly as the
// teacher's ShardedBAMWriter does.
type ShardedWriter struct {
	w             io.Writer
	header        variant.Header
	skipGenotypes bool
	queue         *syncqueue.OrderedQueue
	waitGroup     sync.WaitGroup
	err           error
}

// NewShardedWriter creates a ShardedWriter over w, with header encoded as
// shard -1 (emitted first, ahead of every caller-numbered shard) and a
// reorder window of queueSize pending shards. skipGenotypes mirrors
// bcf2.DoNotWriteGenotypes.
func NewShardedWriter(w io.Writer, queueSize int, h variant.Header, skipGenotypes bool) (*ShardedWriter, error) {
	sw := &ShardedWriter{
		w:             w,
		header:        h,
		skipGenotypes: skipGenotypes,
		queue:         syncqueue.NewOrderedQueue(queueSize),
	}

	c, err := sw.GetCompressor()
	if err != nil {
		return nil, err
	}
	c.StartShard(-1)
	c.cur.buf.Write(bcf2.EncodeHeaderFrame(h))
	if err := c.CloseShard(); err != nil {
		return nil, err
	}

	sw.waitGroup.Add(1)
	go func() {
		defer sw.waitGroup.Done()
		sw.writeShards()
	}()

	return sw, nil
}

// GetCompressor returns a new Compressor bound to this writer, with its own
// independently-built RecordEncoder.
func (sw *ShardedWriter) GetCompressor() (*Compressor, error) {
	enc, err := bcf2.NewRecordEncoder(sw.header, sw.skipGenotypes)
	if err != nil {
		return nil, err
	}
	return &Compressor{writer: sw, enc: enc}, nil
}

func (sw *ShardedWriter) writeShards() {
	for {
		entry, ok, err := sw.queue.Next()
		if err != nil {
			sw.err = err
			return
		}
		if !ok {
			return
		}
		s := entry.(*shard)
		if _, err := s.buf.WriteTo(sw.w); err != nil {
			sw.err = err
			sw.queue.Close(err)
			return
		}
	}
}

// Close waits for every enqueued shard to be written, in order, and
// reports the first error encountered (by a Compressor, or while writing
// shards to the sink).
func (sw *ShardedWriter) Close() error {
	err := sw.queue.Close(nil)
	sw.waitGroup.Wait()
	if sw.err != nil {
		return sw.err
	}
	return err
}
