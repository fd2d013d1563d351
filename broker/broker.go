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

// Package broker is the per-connection object of spec.md §3/§4.3: one
// instance owns a socket's fd, its transport, its read/write Chunks
// buffers, back-pressure marks, retry counters and the lifecycle state
// machine that drives transport -> proxy handshake -> application
// protocol composition.
package broker

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anyks/awh/chunks"
	"github.com/anyks/awh/size"
	"github.com/anyks/awh/transport"
)

// ID is a stable, monotonically increasing per-process broker identifier.
// Per spec.md §9's design note, back-pointers run through this id rather
// than raw pointers: the owning Scheme looks brokers up by ID instead of
// capturing a *Broker in callbacks.
type ID uint64

var nextID uint64

// NextID hands out the next monotonic broker id. New stamps every broker
// it creates with one.
func NextID() ID {
	return ID(atomic.AddUint64(&nextID, 1))
}

// Role is which side of the connection this broker represents.
type Role int

const (
	ClientToServer Role = iota
	ClientToProxy
	ServerAccepted
)

// Phase is the broker's lifecycle state, spec.md §4.3.
type Phase int

const (
	Init Phase = iota
	Connecting
	ProxyHandshake
	AppReady
	AppActive
	Closing
	Closed
)

func (p Phase) String() string {
	switch p {
	case Init:
		return "INIT"
	case Connecting:
		return "CONNECTING"
	case ProxyHandshake:
		return "PROXY_HANDSHAKE"
	case AppReady:
		return "APP_READY"
	case AppActive:
		return "APP_ACTIVE"
	case Closing:
		return "CLOSING"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Mark is a (min, max) watermark pair governing when a broker's
// read/write callback fires (spec.md §4.2, glossary "Mark").
type Mark struct {
	Min int
	Max int
}

// PeerAddr is the remote endpoint of a broker's connection.
type PeerAddr struct {
	IP     net.IP
	Port   int
	Family string // "tcp4" or "tcp6"
	MAC    string // server-accepted brokers only
}

// Retry tracks the connect-retry counters of spec.md §4.7.
type Retry struct {
	Current int
	Limit   int
}

// Broker is one live (or being-torn-down) connection, per spec.md §3.
type Broker struct {
	mu sync.Mutex

	id    ID
	fd    int
	valid bool

	Transport transport.Transport
	Role      Role
	Peer      PeerAddr
	Since     time.Time

	Read  *chunks.Chunks
	Write *chunks.Chunks

	MarkRead  Mark
	MarkWrite Mark

	BudgetRead  size.Size
	BudgetWrite size.Size

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ConnectTimeout time.Duration

	Retry Retry

	phase    Phase
	SchemeID uint64
}

// New creates a broker in Init phase, owning fd. fd must not already be
// owned by another live broker (the caller — Scheme — is responsible for
// that uniqueness invariant per spec.md §3).
func New(fd int, role Role, schemeID uint64) *Broker {
	return &Broker{
		id:       NextID(),
		fd:       fd,
		valid:    true,
		Role:     role,
		Since:    time.Time{},
		Read:     chunks.New(),
		Write:    chunks.New(),
		phase:    Init,
		SchemeID: schemeID,
	}
}

// ID returns the broker's stable id.
func (b *Broker) ID() ID {
	return b.id
}

// FD returns the broker's file descriptor, or -1 once closed. Per
// spec.md §3's invariant, FD is valid iff Phase() != Closed.
func (b *Broker) FD() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.valid {
		return -1
	}
	return b.fd
}

// Phase returns the broker's current lifecycle phase.
func (b *Broker) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// transitions enumerates the legal Phase -> Phase edges of spec.md §4.3's
// state diagram (self-loop APP_READY<->APP_ACTIVE included).
var transitions = map[Phase]map[Phase]bool{
	Init:           {Connecting: true},
	Connecting:     {ProxyHandshake: true, AppReady: true, Closed: true, Closing: true},
	ProxyHandshake: {AppReady: true, Closing: true, Closed: true},
	AppReady:       {AppActive: true, Closing: true},
	AppActive:      {AppReady: true, Closing: true},
	Closing:        {Closed: true},
	Closed:         {},
}

// Transition moves the broker to next, returning ErrInvalidState if the
// edge is not legal per spec.md §4.3. Reaching PROXY_HANDSHAKE -> APP_READY
// triggers switchover (clearing the read/write buffers and resetting the
// retry counter).
func (b *Broker) Transition(next Phase) error {
	b.mu.Lock()
	cur := b.phase
	allowed := transitions[cur][next]
	if !allowed {
		b.mu.Unlock()
		return ErrInvalidState.Error()
	}
	b.phase = next
	fromProxy := cur == ProxyHandshake && next == AppReady
	b.mu.Unlock()

	if fromProxy {
		b.switchover()
	}
	if next == Closed {
		b.close()
	}
	return nil
}

// switchover runs when PROXY_HANDSHAKE completes ("switchConnect" in the
// original source): it resets the retry counter and clears both buffers of
// proxy handshake bytes. The transport is left as it is; the client
// pipeline swaps in an origin TLS transport through SetTransport when the
// target needs one, after proxy success rather than before.
func (b *Broker) switchover() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Retry.Current = 0
	b.Read.Reset()
	b.Write.Reset()
}

// SetTransport replaces the broker's transport, used by the client
// pipeline when switchover upgrades a plain proxy-facing connection to a
// TLS session against the origin over the same fd.
func (b *Broker) SetTransport(t transport.Transport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Transport = t
}

func (b *Broker) close() {
	b.mu.Lock()
	if !b.valid {
		b.mu.Unlock()
		return
	}
	b.valid = false
	t := b.Transport
	b.mu.Unlock()

	if t != nil {
		_ = t.Close()
	}
}

// Close forces the broker directly to CLOSED regardless of its current
// phase, closing the transport. Used for fatal errors where the normal
// CLOSING flush isn't attempted.
func (b *Broker) Close() {
	b.mu.Lock()
	b.phase = Closed
	b.mu.Unlock()
	b.close()
}
