// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pgzip_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"testing"
	"time"

	"github.com/cosnicolaou/pgzip"
	"github.com/cosnicolaou/pgzip/internal/testutil"
)

// roundTrip compresses data with Compress using opts and inflates the
// result with the standard library, which acts as the independent
// reference decoder throughout this file.
func roundTrip(t *testing.T, data []byte, opts ...pgzip.Option) []byte {
	t.Helper()
	var compressed bytes.Buffer
	if err := pgzip.Compress(context.Background(), bytes.NewReader(data), &compressed, opts...); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	gr, err := gzip.NewReader(&compressed)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	out, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("read decompressed stream: %v", err)
	}
	if err := gr.Close(); err != nil {
		t.Fatalf("gzip reader close (trailer CRC/ISIZE check): %v", err)
	}
	return out
}

func TestCompressEmpty(t *testing.T) {
	got := roundTrip(t, nil)
	if len(got) != 0 {
		t.Fatalf("got %v bytes, want 0", len(got))
	}
}

func TestCompressSmall(t *testing.T) {
	data := []byte("hello, world\n")
	got := roundTrip(t, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestCompressCrossBlockRepetition(t *testing.T) {
	// A pattern that straddles block boundaries, exercising dictionary
	// continuity between adjacent blocks.
	pattern := []byte("the quick brown fox jumps over the lazy dog. ")
	data := testutil.GenRepeatingData(pattern, 5*64*1024+17)
	got := roundTrip(t, data, pgzip.WithBlockSize(64*1024), pgzip.WithWorkers(3))
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch, lengths got=%v want=%v", len(got), len(data))
	}
}

func TestCompressRandomBinary(t *testing.T) {
	data := testutil.GenPredictableRandomData(3*32*1024 + 5)
	got := roundTrip(t, data, pgzip.WithBlockSize(32*1024))
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch on random binary data")
	}
}

func TestCompressLargeHighlyCompressible(t *testing.T) {
	data := bytes.Repeat([]byte{0x41}, 2*1024*1024)
	var compressed bytes.Buffer
	if err := pgzip.Compress(context.Background(), bytes.NewReader(data), &compressed,
		pgzip.WithBlockSize(128*1024), pgzip.WithLevel(9)); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if compressed.Len() >= len(data)/10 {
		t.Fatalf("expected strong compression, got %v bytes from %v", compressed.Len(), len(data))
	}
	gr, err := gzip.NewReader(&compressed)
	if err != nil {
		t.Fatal(err)
	}
	out, err := io.ReadAll(gr)
	if err != nil {
		t.Fatal(err)
	}
	if err := gr.Close(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("round trip mismatch")
	}
}

func TestCompressLevelSweep(t *testing.T) {
	data := testutil.GenPredictableRandomData(256 * 1024)
	for level := 1; level <= 9; level++ {
		got := roundTrip(t, data, pgzip.WithLevel(level))
		if !bytes.Equal(got, data) {
			t.Fatalf("level %v: round trip mismatch", level)
		}
	}
}

func TestCompressWorkerCountIndependence(t *testing.T) {
	data := testutil.GenReproducibleRandomData(500 * 1024)
	var baseline []byte
	for _, workers := range []int{1, 2, 5, 16} {
		got := roundTrip(t, data, pgzip.WithWorkers(workers), pgzip.WithBlockSize(64*1024))
		if !bytes.Equal(got, data) {
			t.Fatalf("workers=%v: round trip mismatch", workers)
		}
		if baseline == nil {
			baseline = got
		} else if !bytes.Equal(got, baseline) {
			t.Fatalf("workers=%v: decompressed output differs from the workers=1 baseline", workers)
		}
	}
}

func TestCompressBlockSizeInvariance(t *testing.T) {
	data := testutil.GenReproducibleRandomData(300 * 1024)
	for _, bs := range []int{4096, 37 * 1024, 256 * 1024} {
		got := roundTrip(t, data, pgzip.WithBlockSize(bs))
		if !bytes.Equal(got, data) {
			t.Fatalf("block size=%v: round trip mismatch", bs)
		}
	}
}

func TestCompressWithoutDictionaryContinuity(t *testing.T) {
	pattern := []byte("abcdefghijklmnopqrstuvwxyz0123456789")
	data := testutil.GenRepeatingData(pattern, 4*32*1024)
	got := roundTrip(t, data, pgzip.WithBlockSize(32*1024), pgzip.WithoutDictionaryContinuity())
	if !bytes.Equal(got, data) {
		t.Fatal("round trip mismatch with dictionary continuity disabled")
	}
}

func TestCompressNameAndModTime(t *testing.T) {
	mtime := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	var compressed bytes.Buffer
	if err := pgzip.Compress(context.Background(), bytes.NewReader([]byte("x")), &compressed,
		pgzip.WithName("original.txt"), pgzip.WithModTime(mtime)); err != nil {
		t.Fatal(err)
	}
	gr, err := gzip.NewReader(&compressed)
	if err != nil {
		t.Fatal(err)
	}
	if gr.Name != "original.txt" {
		t.Fatalf("got name %q, want original.txt", gr.Name)
	}
	if gr.ModTime.Unix() != mtime.Unix() {
		t.Fatalf("got mtime %v, want %v", gr.ModTime, mtime)
	}
}

func TestCompressProgress(t *testing.T) {
	data := testutil.GenReproducibleRandomData(300 * 1024)
	ch := make(chan pgzip.Progress, 16)
	var compressed bytes.Buffer
	errCh := make(chan error, 1)
	go func() {
		defer close(ch)
		errCh <- pgzip.Compress(context.Background(), bytes.NewReader(data), &compressed,
			pgzip.WithBlockSize(64*1024), pgzip.WithProgress(ch))
	}()

	var reports []pgzip.Progress
	for p := range ch {
		reports = append(reports, p)
	}
	if err := <-errCh; err != nil {
		t.Fatal(err)
	}
	if len(reports) == 0 {
		t.Fatal("expected at least one progress report")
	}
	for i, p := range reports {
		if p.Seq != uint64(i) {
			t.Fatalf("report %v: got seq %v, want %v", i, p.Seq, i)
		}
	}
}
