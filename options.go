// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pgzip

import (
	"fmt"
	"runtime"
	"time"
)

const (
	defaultBlockSize = 128 * 1024
	defaultLevel     = 6
	minLevel         = 1
	maxLevel         = 9
)

type options struct {
	workers     int
	blockSize   int
	level       int
	name        string
	mtime       time.Time
	noDictChain bool
	verbose     bool
	progressCh  chan<- Progress
}

// Option configures a call to Compress: small functions closing over an
// *options value, applied left to right.
type Option func(*options)

// WithWorkers sets the number of concurrent compression workers. It
// defaults to runtime.GOMAXPROCS(-1).
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithBlockSize sets the size, in bytes, of each block handed to a
// worker. Values at or above 128 KiB give the best ratio/overhead
// trade-off.
func WithBlockSize(n int) Option {
	return func(o *options) { o.blockSize = n }
}

// WithLevel sets the DEFLATE compression level, 1 (fastest) through 9
// (best). 0 is not accepted: the single-threaded reference path's
// store-only semantics are out of scope for the parallel core.
func WithLevel(n int) Option {
	return func(o *options) { o.level = n }
}

// WithName sets the original filename recorded in the gzip header. An
// empty name omits the name field entirely.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithModTime sets the gzip header's modification time.
func WithModTime(t time.Time) Option {
	return func(o *options) { o.mtime = t }
}

// WithoutDictionaryContinuity disables sliding-dictionary priming between
// blocks. Independent blocks only ever cost compression ratio, never
// correctness, and are useful for measuring dictionary continuity's
// effect on a given input.
func WithoutDictionaryContinuity() Option {
	return func(o *options) { o.noDictChain = true }
}

// WithVerbose enables trace-level logging of pipeline events.
func WithVerbose(v bool) Option {
	return func(o *options) { o.verbose = v }
}

// WithProgress requests a Progress value on ch for every block written,
// strictly in sequence order. The caller owns ch and must keep draining
// it; Compress never closes it.
func WithProgress(ch chan<- Progress) Option {
	return func(o *options) { o.progressCh = ch }
}

// Progress reports on one in-order, fully-written block.
type Progress struct {
	Seq          uint64
	Duration     time.Duration
	Compressed   int
	Uncompressed int
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		workers:   runtime.GOMAXPROCS(-1),
		blockSize: defaultBlockSize,
		level:     defaultLevel,
	}
	for _, fn := range opts {
		fn(o)
	}
	if o.workers <= 0 {
		return nil, fmt.Errorf("pgzip: workers must be positive, got %d", o.workers)
	}
	if o.blockSize <= 0 {
		return nil, fmt.Errorf("pgzip: block size must be positive, got %d", o.blockSize)
	}
	if o.level < minLevel || o.level > maxLevel {
		return nil, fmt.Errorf("pgzip: level must be in [%d, %d], got %d", minLevel, maxLevel, o.level)
	}
	return o, nil
}
