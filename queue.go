// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pgzip

import (
	"container/heap"
	"context"
	"sync"
)

// errQueueClosed is returned by takeHead/take when the queue is both
// closed and drained.
type errQueueClosed struct{}

func (errQueueClosed) Error() string { return "pgzip: queue closed" }

// queueClosed is the sentinel error value for a closed-and-empty queue.
var queueClosed error = errQueueClosed{}

// unorderedQueue is the compression feed: multiple producers (in this
// repo, always one: the reader), multiple consumers (the workers). A
// channel already gives FIFO order and "block while empty, wake on
// close" for free, the idiomatic Go rendition of a semaphore-guarded
// linked list; producerCount ensures the channel is closed only once the
// last producer is done, never mid-stream.
type unorderedQueue struct {
	ch chan *job

	mu            sync.Mutex
	producerCount int
}

func newUnorderedQueue(producers, capacity int) *unorderedQueue {
	return &unorderedQueue{
		ch:            make(chan *job, capacity),
		producerCount: producers,
	}
}

// addEnd submits a job, blocking if the queue is at capacity until a
// consumer frees a slot or ctx is done. Submitting to a closed queue is a
// contract violation and panics: closed queues admit no further inserts.
func (q *unorderedQueue) addEnd(ctx context.Context, j *job) error {
	select {
	case q.ch <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// takeHead blocks until a job is available or the queue is closed and
// drained, in which case it returns queueClosed.
func (q *unorderedQueue) takeHead(ctx context.Context) (*job, error) {
	select {
	case j, ok := <-q.ch:
		if !ok {
			return nil, queueClosed
		}
		return j, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// closeProducer decrements the producer count; when it reaches zero the
// channel is closed, waking every blocked consumer.
func (q *unorderedQueue) closeProducer() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.producerCount--
	if q.producerCount == 0 {
		close(q.ch)
	}
}

// jobHeap orders jobs by sequence number, letting the ordered queue find
// its minimum in O(log n) instead of rescanning a linked list.
type jobHeap []*job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].seq < h[j].seq }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x interface{}) { *h = append(*h, x.(*job)) }
func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return j
}

// orderedQueue is the writer feed: many producers (one per worker), one
// consumer (the writer), which demands jobs strictly in sequence order.
// A heap finds the current minimum sequence number in O(log n), and a
// condition variable replaces a broadcast-on-every-insert wakeup with
// sync.Cond.Broadcast.
type orderedQueue struct {
	mu            sync.Mutex
	cond          *sync.Cond
	heap          jobHeap
	producerCount int
	closed        bool
}

func newOrderedQueue(producers int) *orderedQueue {
	q := &orderedQueue{producerCount: producers}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// add submits a job; insertion order is irrelevant, only seq matters to
// consumers.
func (q *orderedQueue) add(j *job) {
	q.mu.Lock()
	heap.Push(&q.heap, j)
	q.cond.Broadcast()
	q.mu.Unlock()
}

// take blocks until a job with the given seq has been inserted, or the
// queue is closed and no such job will ever arrive, in which case it
// returns queueClosed. Each seq is taken at most once.
func (q *orderedQueue) take(ctx context.Context, seq uint64) (*job, error) {
	done := make(chan struct{})
	defer close(done)
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				q.mu.Lock()
				q.cond.Broadcast()
				q.mu.Unlock()
			case <-done:
			}
		}()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if len(q.heap) > 0 && q.heap[0].seq == seq {
			j := heap.Pop(&q.heap).(*job)
			return j, nil
		}
		if len(q.heap) > 0 && q.heap[0].seq < seq {
			// Every seq below the one demanded has already been taken.
			panic("pgzip: duplicate job sequence number")
		}
		if q.closed {
			return nil, queueClosed
		}
		if ctx != nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		q.cond.Wait()
	}
}

// closeProducer decrements the producer count; the last producer to call
// this sets the closed flag and wakes every waiter, triggering the
// writer's final drain.
func (q *orderedQueue) closeProducer() {
	q.mu.Lock()
	q.producerCount--
	if q.producerCount == 0 {
		q.closed = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
}
