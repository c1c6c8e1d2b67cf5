// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pgzip

import "testing"

func TestNewOptionsDefaults(t *testing.T) {
	o, err := newOptions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.blockSize != defaultBlockSize {
		t.Errorf("got block size %v, want %v", o.blockSize, defaultBlockSize)
	}
	if o.level != defaultLevel {
		t.Errorf("got level %v, want %v", o.level, defaultLevel)
	}
	if o.workers <= 0 {
		t.Errorf("got non-positive default worker count %v", o.workers)
	}
}

func TestNewOptionsApplied(t *testing.T) {
	o, err := newOptions([]Option{
		WithWorkers(4),
		WithBlockSize(1024),
		WithLevel(9),
		WithName("file.txt"),
		WithVerbose(true),
		WithoutDictionaryContinuity(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.workers != 4 {
		t.Errorf("got workers %v, want 4", o.workers)
	}
	if o.blockSize != 1024 {
		t.Errorf("got block size %v, want 1024", o.blockSize)
	}
	if o.level != 9 {
		t.Errorf("got level %v, want 9", o.level)
	}
	if o.name != "file.txt" {
		t.Errorf("got name %q, want file.txt", o.name)
	}
	if !o.verbose {
		t.Errorf("expected verbose to be set")
	}
	if !o.noDictChain {
		t.Errorf("expected noDictChain to be set")
	}
}

func TestNewOptionsValidation(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []Option
	}{
		{"zero workers", []Option{WithWorkers(0)}},
		{"negative workers", []Option{WithWorkers(-1)}},
		{"zero block size", []Option{WithBlockSize(0)}},
		{"level too low", []Option{WithLevel(0)}},
		{"level too high", []Option{WithLevel(10)}},
	} {
		if _, err := newOptions(tc.opts); err == nil {
			t.Errorf("%v: expected an error", tc.name)
		}
	}
}
