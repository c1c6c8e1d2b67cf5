// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package pgzip implements a parallel gzip-format compressor: it reads a
// byte stream, partitions it into fixed-size blocks, compresses blocks
// concurrently across a worker pool using DEFLATE, and emits a single,
// standards-conformant gzip member whose decompression reproduces the
// original stream byte-for-byte. See Compress.
package pgzip

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Compress reads r to completion and writes a single gzip member to w,
// compressing in parallel across opts' worker count. It blocks until the
// whole stream has been read, compressed, and written (or an error or
// ctx cancellation occurs); the reader/partitioner runs on the calling
// goroutine.
//
// Alongside r and w, Compress's options cover block size, worker count,
// compression level, an optional original name, and an optional
// modification time.
func Compress(ctx context.Context, r io.Reader, w io.Writer, opts ...Option) error {
	o, err := newOptions(opts)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var mtime uint32
	if !o.mtime.IsZero() {
		mtime = uint32(o.mtime.Unix())
	}

	outOverhead := o.blockSize>>4 + 1024
	inPool := newPool(o.blockSize, 2*o.workers)
	outPool := newPool(o.blockSize+outOverhead, 2*o.workers)
	dictPool := newPool(dictWindow, 2*o.workers)

	compQ := newUnorderedQueue(1, o.workers)
	writeQ := newOrderedQueue(o.workers)

	var workerWG sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		cw := newCompressionWorker(i, compQ, writeQ, o, inPool, outPool, dictPool)
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			cw.run(ctx)
		}()
	}

	writeErrCh := make(chan error, 1)
	gw := newGzipWriter(w, writeQ, o, outPool, mtime)
	go func() {
		err := gw.run(ctx)
		if err != nil {
			// The writer no longer returns output buffers, so stop the
			// reader and workers rather than leave them blocked.
			cancel()
		}
		writeErrCh <- err
	}()

	readErr := partition(ctx, r, compQ, inPool, outPool, dictPool, o)
	compQ.closeProducer()

	workerWG.Wait()
	writeErr := <-writeErrCh

	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// partition is the reader/partitioner. It produces a strict sequence of
// jobs, each carrying a block-size-bounded chunk of input plus the
// preceding block's sliding-dictionary window, and submits them to the
// compression queue in order.
func partition(ctx context.Context, r io.Reader, q *unorderedQueue, inPool, outPool, dictPool *pool, o *options) error {
	var prev *job
	var seq uint64

	for {
		inSpace, err := inPool.get(ctx)
		if err != nil {
			return err
		}
		outSpace, err := outPool.get(ctx)
		if err != nil {
			inPool.drop(inSpace)
			return err
		}

		n, rerr := io.ReadFull(r, inSpace.buf)
		if rerr != nil && !errors.Is(rerr, io.ErrUnexpectedEOF) && !errors.Is(rerr, io.EOF) {
			inPool.drop(inSpace)
			outPool.drop(outSpace)
			return rerr
		}
		inSpace.len = n

		if n == 0 {
			if prev == nil {
				// Nothing was ever read: still submit a terminal job so
				// the worker runs its FINISH path and a well-formed
				// (empty) deflate block reaches the writer. Without
				// this, an empty input produces a header immediately
				// followed by a trailer, with no deflate data between
				// them: not a valid gzip member.
				inSpace.len = 0
				return q.addEnd(ctx, &job{seq: seq, more: false, in: inSpace, out: outSpace})
			}
			inPool.drop(inSpace)
			outPool.drop(outSpace)
			prev.more = false
			return q.addEnd(ctx, prev)
		}

		j := &job{seq: seq, more: true, in: inSpace, out: outSpace}

		if prev != nil {
			if !o.noDictChain {
				dictSpace, derr := dictPool.get(ctx)
				if derr != nil {
					return derr
				}
				dictLen := prev.in.len
				if dictLen > dictWindow {
					dictLen = dictWindow
				}
				copy(dictSpace.buf, prev.in.bytes()[prev.in.len-dictLen:])
				dictSpace.len = dictLen
				j.dict = dictSpace
			}
			if err := q.addEnd(ctx, prev); err != nil {
				return err
			}
		}

		prev = j
		seq++
	}
}
