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

// Package partners is the server-side tunnel pairing map (spec.md §3,
// §4.4): a symmetric fd<->fd association the SOCKS5/HTTP proxy relay uses
// to forward bytes between a client-facing broker and its upstream
// broker.
package partners

import "sync"

// CloseFunc closes the fd it is given. The broker package supplies this
// so Map never has to know about broker internals.
type CloseFunc func(fd int) error

// Map is a symmetric fd<->fd pairing: for every (a, b) joined via Join,
// m[a] == b and m[b] == a. A fd may be paired with itself as a sentinel
// meaning "reserved, not yet joined" (spec.md §12, grounded on
// src/events/partners.cpp's self-insert behavior).
type Map struct {
	mu    sync.Mutex
	pairs map[int]int
	close CloseFunc
}

// New returns an empty partners map. close is invoked on both fds of a
// pair when Remove closes it; pass nil to skip closing
// (e.g. in tests).
func New(close CloseFunc) *Map {
	return &Map{pairs: make(map[int]int), close: close}
}

// Reserve inserts fd paired with itself, the self-loop sentinel meaning
// "fd is tracked but not yet joined to a peer".
func (m *Map) Reserve(fd int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[fd] = fd
}

// Join pairs a and b symmetrically, overwriting any previous pairing
// (including a prior Reserve self-loop) for either fd.
func (m *Map) Join(a, b int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[a] = b
	m.pairs[b] = a
}

// PartnerOf returns the fd paired with fd, and whether fd is tracked at
// all. For a self-loop reservation, the returned partner equals fd.
func (m *Map) PartnerOf(fd int) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pairs[fd]
	return p, ok
}

// Remove closes fd (via the configured CloseFunc) and its partner, then
// removes both from the map. A self-loop reservation closes and removes
// only the one fd.
func (m *Map) Remove(fd int) {
	m.mu.Lock()
	partner, ok := m.pairs[fd]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.pairs, fd)
	if partner != fd {
		delete(m.pairs, partner)
	}
	m.mu.Unlock()

	if m.close != nil {
		_ = m.close(fd)
		if partner != fd {
			_ = m.close(partner)
		}
	}
}

// Len reports the number of tracked fds (each joined pair counts as 2).
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pairs)
}
