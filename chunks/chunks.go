/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package chunks implements the indexed byte-queue abstraction (Chunks)
// backing every broker's read and write buffers: an ordered queue of byte
// vectors addressed by a head/tail index pair, with an end-of-stream flag
// producers set once no more data will ever be appended.
//
// A Chunks value is meant to be driven from a single goroutine (the reactor
// loop thread is both its producer and its consumer); the embedded mutex
// guards against accidental misuse rather than enabling cross-thread
// fan-in.
package chunks

import "sync"

// Chunks is an ordered queue of byte slices addressed by a monotonically
// increasing head/tail index pair. The map representation lets a producer
// stage a chunk out of order (AddAt) when it already knows the index the
// chunk belongs at; Get always drains in head order regardless of how
// chunks were staged.
type Chunks struct {
	mu   sync.Mutex
	data map[uint64][]byte
	head uint64
	tail uint64
	end  bool
}

// New returns an empty Chunks queue.
func New() *Chunks {
	return &Chunks{data: make(map[uint64][]byte)}
}

// Add enqueues b at the current tail index and returns the index it was
// stored at. Appending after End() has been called still succeeds; callers
// that want to enforce "no more writes after end" must check End()
// themselves (Get will not surface it while the flag is set: see Get's
// end-flag behavior).
func (c *Chunks) Add(b []byte) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.tail
	c.data[idx] = b
	c.tail++
	return idx
}

// AddAt stages b at an explicit index, for producers that assign indices
// themselves (e.g. reassembling out-of-order network chunks). It advances
// tail if idx falls at or beyond the current tail.
func (c *Chunks) AddAt(idx uint64, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[idx] = b
	if idx >= c.tail {
		c.tail = idx + 1
	}
}

// Get returns the chunk at the head index and advances head. It returns
// (nil, false) when the queue is empty, and also while the end flag is
// set, even if chunks are still queued; they become available again once
// the flag is cleared with SetEnd(false).
func (c *Chunks) Get() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.end {
		return nil, false
	}
	if c.head >= c.tail {
		c.normalize()
		return nil, false
	}

	b, ok := c.data[c.head]
	delete(c.data, c.head)
	c.head++

	c.normalize()

	if !ok {
		return nil, false
	}
	return b, true
}

// normalize resets head/tail to zero once the queue has fully drained, so
// the index pair never grows without bound across a long-lived connection.
// This replaces the "count/size > 1e7" heuristic from the original source
// with a plain invariant: an empty queue has no reason to remember how many
// chunks it has ever seen.
func (c *Chunks) normalize() {
	if c.head == c.tail && len(c.data) == 0 {
		c.head, c.tail = 0, 0
	}
}

// Len returns the number of chunks currently queued (tail - head).
func (c *Chunks) Len() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tail - c.head
}

// SetEnd sets or clears the end-of-stream flag: while it is set, Get
// returns (nil, false) instead of blocking or erroring, and queued chunks
// stay in place until the flag is cleared.
func (c *Chunks) SetEnd(end bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.end = end
}

// End reports whether the end-of-stream flag is set.
func (c *Chunks) End() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.end
}

// Reset clears the queue, its indices and its end flag.
func (c *Chunks) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[uint64][]byte)
	c.head, c.tail = 0, 0
	c.end = false
}

// Bytes drains and concatenates every queued chunk, leaving the queue
// empty. It is a convenience for protocol codecs that want a contiguous
// view of everything buffered so far.
func (c *Chunks) Bytes() []byte {
	var out []byte
	for {
		b, ok := c.Get()
		if !ok {
			break
		}
		out = append(out, b...)
	}
	return out
}
