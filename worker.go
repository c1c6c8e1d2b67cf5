// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pgzip

import (
	"bytes"
	"context"
	"hash/crc32"
	"io"
	"log"

	"github.com/klauspost/compress/flate"
)

// compressionWorker drains the compression queue, compresses and
// checksums each job, and hands it to the writer queue.
//
// The encoder is constructed once per worker with raw-deflate parameters
// (no gzip wrapper: the writer alone owns the wrapper) and reused across
// jobs via ResetDict, avoiding a per-block allocation of encoder state.
type compressionWorker struct {
	id       int
	in       *unorderedQueue
	out      *orderedQueue
	opts     *options
	inPool   *pool
	outPool  *pool
	dictPool *pool
}

func newCompressionWorker(id int, in *unorderedQueue, out *orderedQueue, opts *options, inPool, outPool, dictPool *pool) *compressionWorker {
	return &compressionWorker{
		id:       id,
		in:       in,
		out:      out,
		opts:     opts,
		inPool:   inPool,
		outPool:  outPool,
		dictPool: dictPool,
	}
}

func (w *compressionWorker) trace(format string, args ...interface{}) {
	if w.opts.verbose {
		log.Printf("pgzip: worker %d: "+format, append([]interface{}{w.id}, args...)...)
	}
}

// run is the worker's goroutine body. It returns once the compression
// queue is closed and drained or ctx is done, having closed its slot on
// the writer queue's producer count on the way out.
func (w *compressionWorker) run(ctx context.Context) {
	enc, err := flate.NewWriterDict(io.Discard, w.opts.level, nil)
	if err != nil {
		// Encoder initialization failure with a validated level is
		// unreachable, so this is asserted rather than propagated.
		panic("pgzip: flate.NewWriterDict: " + err.Error())
	}

	for {
		j, err := w.in.takeHead(ctx)
		if err != nil {
			break
		}
		w.compress(enc, j)
		w.out.add(j)
	}
	w.out.closeProducer()
}

// compress performs one job's worth of work: reset+dictionary, deflate
// with the appropriate flush mode, checksum, and release the
// input-side buffers.
func (w *compressionWorker) compress(enc *flate.Writer, j *job) {
	w.trace("compressing seq=%d more=%v in=%d dict=%v", j.seq, j.more, j.in.len, j.dict != nil)

	dest := bytes.NewBuffer(j.out.buf[:0])
	var dict []byte
	if j.dict != nil {
		dict = j.dict.bytes()
	}
	enc.ResetDict(dest, dict)

	if _, err := enc.Write(j.in.bytes()); err != nil {
		panic("pgzip: flate write: " + err.Error())
	}
	if j.more {
		if err := enc.Flush(); err != nil { // SYNC_FLUSH
			panic("pgzip: flate flush: " + err.Error())
		}
	} else {
		if err := enc.Close(); err != nil { // FINISH
			panic("pgzip: flate close: " + err.Error())
		}
	}
	j.out.buf = dest.Bytes()
	j.out.len = len(j.out.buf)

	j.check = crc32.ChecksumIEEE(j.in.bytes())
	j.inLen = j.in.len

	w.dictPool.drop(j.dict)
	j.dict = nil
	w.inPool.drop(j.in)
	j.in = nil
}
