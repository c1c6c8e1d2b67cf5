// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/cosnicolaou/pgzip"
	"github.com/schollz/progressbar/v2"
)

// drainProgress renders a progress bar driven by ch; it returns once ch
// is closed or ctx is done.
func drainProgress(ctx context.Context, w io.Writer, ch <-chan pgzip.Progress, size int64) {
	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetBytes64(size),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetPredictTime(true))
	bar.RenderBlank()
	next := uint64(0)
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				fmt.Fprintf(w, "\n")
				return
			}
			bar.Add(p.Uncompressed)
			if p.Seq != next {
				// Blocks are delivered strictly in sequence order by
				// the writer; anything else is a pipeline bug.
				panic(fmt.Sprintf("pgzip: out of sequence progress report: got %d want %d", p.Seq, next))
			}
			next++
		case <-ctx.Done():
			return
		}
	}
}
