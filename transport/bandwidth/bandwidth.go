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

// Package bandwidth is the broker byte-budget limiter (spec.md §3's
// "read/write byte budgets (bandwidth shaping; 0 = unlimited)"), adapted
// from the teacher's file/bandwidth time-window throttle concept: track
// bytes moved in the current one-second window, and report how many more
// bytes (if any) may move before the window resets.
package bandwidth

import (
	"sync"
	"time"

	"github.com/anyks/awh/size"
)

// Limiter enforces a per-second byte budget. A zero budget means
// unlimited, per spec.md §3.
type Limiter struct {
	mu       sync.Mutex
	budget   size.Size
	used     uint64
	windowAt time.Time
}

// New returns a Limiter capped at budget bytes/second. budget == 0 means
// unlimited.
func New(budget size.Size) *Limiter {
	return &Limiter{budget: budget, windowAt: time.Time{}}
}

// SetBudget updates the budget in place (e.g. scheme.bandwidth(read, write)
// reconfiguring a live broker).
func (l *Limiter) SetBudget(budget size.Size) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.budget = budget
}

// Allow reports how many of the requested n bytes may move right now
// without exceeding the budget, and advances the internal counter by
// that amount. A return value less than n means the caller should defer
// the remainder to the next reactor turn (or the next window).
func (l *Limiter) Allow(n int, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.budget.Unlimited() {
		return n
	}

	if now.Sub(l.windowAt) >= time.Second {
		l.windowAt = now
		l.used = 0
	}

	remaining := l.budget.Bytes()
	if l.used >= remaining {
		return 0
	}

	avail := remaining - l.used
	if uint64(n) > avail {
		n = int(avail)
	}
	l.used += uint64(n)
	return n
}

// Remaining reports how many bytes may still move in the current window.
func (l *Limiter) Remaining(now time.Time) size.Size {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.budget.Unlimited() {
		return 0
	}
	if now.Sub(l.windowAt) >= time.Second {
		return l.budget
	}
	remaining := l.budget.Bytes()
	if l.used >= remaining {
		return 0
	}
	return size.Size(remaining - l.used)
}
