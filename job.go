// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pgzip

// job is one block of work carried through the pipeline: reader ->
// compression worker -> writer.
//
// seq is unique across a run and monotonically increasing from 0; exactly
// one job in a run has more == false. dict, when non-nil, holds the
// trailing window of the previous block's input: its last dictWindow
// bytes, or the whole block when that block is shorter than dictWindow.
type job struct {
	seq  uint64
	more bool

	in   *space
	out  *space
	dict *space

	check uint32 // CRC-32 of in, set by the worker
	inLen int    // len(in.bytes()) at the time in was released, needed by the writer

	next *job // intrusive list link; the channel- and heap-based queues do not use it
}

// dictWindow is the sliding-dictionary size: the last 32 KiB of the
// previous block's uncompressed input.
const dictWindow = 32 * 1024
