// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package testutil holds test-data generators shared across this
// module's package tests.
package testutil

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"math/rand"
	"os"
	"time"
)

// fixedRandSeed must stay in sync with any generator that needs the same
// bytes across two independent calls.
const fixedRandSeed = 0x1234

var randSource rand.Source

func init() {
	randSeed := time.Now().UnixNano()
	fmt.Printf("rand seed for GenReproducibleRandomData: %v\n", randSeed)
	randSource = rand.NewSource(randSeed)
}

// GenPredictableRandomData generates random data starting with a fixed
// known seed, so two calls with the same size return identical bytes.
func GenPredictableRandomData(size int) []byte {
	gen := rand.New(rand.NewSource(fixedRandSeed))
	out := make([]byte, size)
	for i := range out {
		out[i] = byte(gen.Intn(256))
	}
	return out
}

// GenReproducibleRandomData uses the random seed printed out by this
// package's init function, so a failing test's seed can be pinned down
// from its output.
func GenReproducibleRandomData(size int) []byte {
	gen := rand.New(randSource)
	out := make([]byte, size)
	for i := range out {
		out[i] = byte(gen.Intn(256))
	}
	return out
}

// GenRepeatingData returns size bytes built by repeating pattern, useful
// for exercising cross-block dictionary continuity.
func GenRepeatingData(pattern []byte, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}

// CreateGzipFile writes data to filename and also writes filename+".gz",
// an independently-produced gzip encoding of data using the standard
// library, for use as a reference/oracle file in round-trip tests.
func CreateGzipFile(filename string, data []byte) error {
	if err := os.WriteFile(filename, data, 0660); err != nil {
		return fmt.Errorf("write file: %v: %v", filename, err)
	}
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		return fmt.Errorf("gzip write: %v: %v", filename, err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("gzip close: %v: %v", filename, err)
	}
	if err := os.WriteFile(filename+".gz", buf.Bytes(), 0660); err != nil {
		return fmt.Errorf("write file: %v.gz: %v", filename, err)
	}
	return nil
}

// FirstN returns at most the first n bytes of b.
func FirstN(n int, b []byte) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
