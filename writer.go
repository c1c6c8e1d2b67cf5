// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pgzip

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cosnicolaou/pgzip/internal/crc32combine"
)

// gzipWriter is the single thread that pulls jobs from the ordered writer
// queue in sequence order and emits the gzip header, the concatenated
// raw-deflate payloads, and the trailer.
type gzipWriter struct {
	w        io.Writer
	q        *orderedQueue
	opts     *options
	outPool  *pool
	mtime    uint32
}

func newGzipWriter(w io.Writer, q *orderedQueue, opts *options, outPool *pool, mtime uint32) *gzipWriter {
	return &gzipWriter{w: w, q: q, opts: opts, outPool: outPool, mtime: mtime}
}

func (gw *gzipWriter) trace(format string, args ...interface{}) {
	if gw.opts.verbose {
		log.Printf("pgzip: writer: "+format, args...)
	}
}

// run drains the ordered queue until it is closed, writing each block in
// sequence, and returns the first error encountered, or nil on success.
// It always writes a well-formed trailer on the success path, even for a
// zero-block (empty-input) run.
func (gw *gzipWriter) run(ctx context.Context) error {
	if _, err := gw.w.Write(buildHeader(gw.opts.name, gw.mtime, gw.opts.level)); err != nil {
		return fmt.Errorf("pgzip: write header: %w", err)
	}

	var (
		ulen     uint64
		finalCRC uint32
		seq      uint64
		more     = true
	)

	for more {
		j, err := gw.q.take(ctx, seq)
		if err != nil {
			if err == queueClosed {
				break
			}
			return err
		}

		start := time.Now()
		if err := writeFull(gw.w, j.out.bytes()); err != nil {
			return fmt.Errorf("pgzip: write block %d: %w", seq, err)
		}
		ulen += uint64(j.inLen)
		finalCRC = crc32combine.Combine(finalCRC, j.check, int64(j.inLen))
		more = j.more

		gw.trace("wrote seq=%d bytes=%d more=%v", j.seq, j.out.len, more)
		if gw.opts.progressCh != nil {
			select {
			case gw.opts.progressCh <- Progress{
				Seq:          j.seq,
				Duration:     time.Since(start),
				Compressed:   j.out.len,
				Uncompressed: j.inLen,
			}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		gw.outPool.drop(j.out)
		j.out = nil
		seq++
	}

	if _, err := gw.w.Write(buildTrailer(finalCRC, uint32(ulen))); err != nil {
		return fmt.Errorf("pgzip: write trailer: %w", err)
	}
	return nil
}

// writeFull writes all of p to w, retrying on short writes. Any write
// failure is fatal.
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
