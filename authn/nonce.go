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

package authn

import (
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-uuid"
)

// NewNonce generates a cryptographically strong nonce with an embedded
// issuance timestamp, per spec.md §4.5.
func NewNonce() (string, error) {
	token, err := uuid.GenerateUUID()
	if err != nil {
		return "", ErrChallengeMalformed.Error(err)
	}
	return strconv.FormatInt(time.Now().Unix(), 16) + "-" + token, nil
}

// NewOpaque generates an opaque value the server round-trips with each
// challenge.
func NewOpaque() (string, error) {
	token, err := uuid.GenerateUUID()
	if err != nil {
		return "", ErrChallengeMalformed.Error(err)
	}
	return token, nil
}

// nonceState tracks one issued nonce (the opaque value is not recorded):
// when it was issued and the highest nc seen for each cnonce paired with
// it, so a client can't replay an old (nc, cnonce) combination.
type nonceState struct {
	issuedAt time.Time
	lastNc   map[string]uint64
}

// NonceTracker is the server-side registry of issued nonces, enforcing the
// TTL-based staleness check and the strictly-increasing nc invariant from
// spec.md §4.5 ("nc is a hex counter that the client must strictly
// increment per (nonce, cnonce)").
type NonceTracker struct {
	mu    sync.Mutex
	ttl   time.Duration
	known map[string]*nonceState
}

// NewNonceTracker returns a tracker that considers a nonce stale once ttl
// has elapsed since issuance.
func NewNonceTracker(ttl time.Duration) *NonceTracker {
	return &NonceTracker{ttl: ttl, known: make(map[string]*nonceState)}
}

// Issue records nonce as freshly issued (called when the challenge is
// sent).
func (t *NonceTracker) Issue(nonce string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.known[nonce] = &nonceState{issuedAt: time.Now(), lastNc: make(map[string]uint64)}
}

// Verify checks nonce/cnonce/nc against the tracker: an unknown nonce is
// treated as stale (it may have been issued by a prior process instance);
// an expired nonce is stale; a non-increasing nc is a replay.
func (t *NonceTracker) Verify(nonce, cnonce, nc string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.known[nonce]
	if !ok {
		return ErrStaleNonce.Error()
	}
	if t.ttl > 0 && time.Since(st.issuedAt) > t.ttl {
		return ErrStaleNonce.Error()
	}

	n, err := strconv.ParseUint(nc, 16, 64)
	if err != nil {
		return ErrChallengeMalformed.Error(err)
	}
	if n <= st.lastNc[cnonce] {
		return ErrReplayedNonceCount.Error()
	}
	st.lastNc[cnonce] = n
	return nil
}

// Forget drops a nonce once it's no longer eligible for retry (e.g. after
// a successful auth that completes the exchange).
func (t *NonceTracker) Forget(nonce string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.known, nonce)
}
