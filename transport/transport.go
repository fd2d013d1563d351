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

// Package transport is the read/write abstraction over plain TCP or TLS
// that every broker drives, per spec.md §4.2 and §9 ("TLS is a pluggable
// transport the core drives through a minimal read/write/handshake
// interface").
package transport

import (
	"errors"
	"io"
	"net"
)

// HandshakeState is the outcome of one Handshake call.
type HandshakeState int

const (
	Pending HandshakeState = iota
	Done
	Failed
)

// ErrWouldBlock is returned by Read/Write when the underlying net.Conn
// reports a timeout (a deadline set on it expired before it was ready);
// callers re-arm the reactor watch and retry on the next readiness turn.
// Without a deadline, Read and Write block like the net.Conn does.
var ErrWouldBlock = errors.New("transport: would block")

// Transport is the minimal surface a broker drives: handshake, then
// non-blocking read/write, then close. Plain and TLS are the two
// implementations; TLS additionally drives its own handshake state
// machine and may request extra read/write readiness via Pending.
type Transport interface {
	// Handshake advances the transport's handshake (a no-op returning
	// Done immediately for Plain). It must be called until it returns
	// Done or Failed before Read/Write are used for application data.
	Handshake() (HandshakeState, error)

	// Read attempts to fill buf from the connection. It returns
	// ErrWouldBlock if a deadline on the connection expires before data
	// arrives, or io.EOF/a wrapped error if the peer closed the connection.
	Read(buf []byte) (n int, err error)

	// Write attempts to send buf. It returns ErrWouldBlock if a deadline
	// on the connection expires before the write completes.
	Write(buf []byte) (n int, err error)

	// Close releases the underlying file descriptor. Idempotent.
	Close() error

	// FD returns the underlying file descriptor, for reactor.Watch.
	FD() (int, error)
}

// connFD extracts the raw file descriptor from a *net.TCPConn, or from the
// *net.TCPConn underneath a *tls.Conn (reached through its NetConn method).
func connFD(c net.Conn) (int, error) {
	if w, ok := c.(interface{ NetConn() net.Conn }); ok {
		c = w.NetConn()
	}
	tc, ok := c.(*net.TCPConn)
	if !ok {
		return -1, ErrTransport.Error(io.EOF)
	}

	raw, err := tc.SyscallConn()
	if err != nil {
		return -1, ErrTransport.Error(err)
	}

	var fd int
	cerr := raw.Control(func(ptr uintptr) { fd = int(ptr) })
	if cerr != nil {
		return -1, ErrTransport.Error(cerr)
	}
	return fd, nil
}
