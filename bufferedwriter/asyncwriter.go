// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bufferedwriter

import (
	"context"
	"sync"

	"github.com/grailbio/bcf2/variant"
)

// asyncMsg is one item on the AsyncWriter's internal queue: either a header
// (isHeader true) or a record.
type asyncMsg struct {
	isHeader bool
	header   variant.Header
	rec      variant.Record
}

// AsyncWriter is the C10 "Async Queue": it decouples the producer from the
// wrapped Writer's I/O latency with a buffered channel drained by a single
// background goroutine, following the drain-goroutine + sync.WaitGroup +
// captured-error-mailbox shape of the teacher's ShardedBAMWriter
// (shardedbam.go), simplified from that type's parallel-shard reordering
// queue (syncqueue.OrderedQueue) to a plain FIFO since AsyncWriter has
// exactly one producer and preserves arrival order as-is.
type AsyncWriter struct {
	inner variant.Writer
	ch    chan asyncMsg
	done  chan struct{}
	wg    sync.WaitGroup

	mu     sync.Mutex
	err    error
	closed bool
}

// defaultQueueDepth is used when NewAsyncWriter is given depth <= 0
// (spec.md §4.10's default capacity Q).
const defaultQueueDepth = 2048

// NewAsyncWriter wraps inner, queueing up to depth pending WriteHeader/Add
// calls before Add blocks.
func NewAsyncWriter(inner variant.Writer, depth int) *AsyncWriter {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	w := &AsyncWriter{
		inner: inner,
		ch:    make(chan asyncMsg, depth),
		done:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.drain()
	return w
}

func (w *AsyncWriter) drain() {
	defer w.wg.Done()
	defer close(w.done)
	for msg := range w.ch {
		if w.hasErr() {
			continue // keep draining so a blocked producer can still close
		}
		var err error
		if msg.isHeader {
			err = w.inner.WriteHeader(msg.header)
		} else {
			err = w.inner.Add(msg.rec)
		}
		if err != nil {
			w.setErr(err)
		}
	}
}

func (w *AsyncWriter) hasErr() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err != nil
}

func (w *AsyncWriter) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *AsyncWriter) firstErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *AsyncWriter) WriteHeader(h variant.Header) error {
	return w.enqueue(asyncMsg{isHeader: true, header: h})
}

func (w *AsyncWriter) Add(r variant.Record) error {
	return w.enqueue(asyncMsg{rec: r})
}

// AddContext is Add but gives up and returns ctx.Err() if the queue is full
// and ctx is canceled before a slot opens, implementing
// variant.ContextWriter.
func (w *AsyncWriter) AddContext(ctx context.Context, r variant.Record) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return variant.Errorf(variant.LifecycleError, "Add called after Close")
	}
	select {
	case w.ch <- asyncMsg{rec: r}:
		return w.firstErr()
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return w.firstErr()
	}
}

func (w *AsyncWriter) enqueue(msg asyncMsg) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return variant.Errorf(variant.LifecycleError, "Add called after Close")
	}
	if err := w.firstErr(); err != nil {
		return err
	}
	w.ch <- msg
	return w.firstErr()
}

// Close stops accepting new work, waits for the queue to drain, then closes
// the wrapped Writer. The first error observed anywhere in the pipeline
// (queued WriteHeader/Add, or the wrapped Close) is returned.
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.ch)
	w.wg.Wait()

	err := w.firstErr()
	if cerr := w.inner.Close(); err == nil {
		err = cerr
	}
	return err
}
