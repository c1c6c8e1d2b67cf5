// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pgzip

import (
	"context"
	"sync"
)

// pool is a fixed-capacity cache of same-sized spaces. The counting
// semaphore that bounds outstanding spaces is realized as a buffered
// channel, the idiomatic Go backpressure primitive; list surgery is
// guarded by a plain mutex, kept separate from the semaphore so that
// teardown never races with a blocked acquirer the way a single fused
// lock would.
type pool struct {
	size int // fixed buffer size for every space in this pool

	have chan struct{} // one token per unmade/free space; acquire blocks when exhausted

	mu   sync.Mutex
	head *space // free list
	made int
}

// newPool creates a pool bounded to limit outstanding spaces of size bytes.
// Spaces are allocated lazily, on first demand.
func newPool(size, limit int) *pool {
	p := &pool{
		size: size,
		have: make(chan struct{}, limit),
	}
	for i := 0; i < limit; i++ {
		p.have <- struct{}{}
	}
	return p
}

// get blocks until a space is available and returns it. It never returns
// nil; ctx cancellation is the only way get can return early, in which case
// it returns ctx.Err().
func (p *pool) get(ctx context.Context) (*space, error) {
	select {
	case <-p.have:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.head != nil {
		s := p.head
		p.head = s.next
		s.next = nil
		s.reset()
		p.mu.Unlock()
		return s, nil
	}
	p.made++
	p.mu.Unlock()
	return newSpace(p.size), nil
}

// drop returns s to its pool. drop(nil) is a no-op.
func (p *pool) drop(s *space) {
	if s == nil {
		return
	}
	p.mu.Lock()
	s.reset()
	s.next = p.head
	p.head = s
	p.mu.Unlock()
	p.have <- struct{}{}
}
