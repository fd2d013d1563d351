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

package transport

import (
	"io"
	"net"
	"os"
)

// Plain is a non-TLS Transport: reads/writes are forwarded straight to
// the OS socket, and Handshake is an immediate no-op.
type Plain struct {
	conn net.Conn
}

// NewPlain wraps an already-connected net.Conn as given. Nothing switches
// it to non-blocking mode: Read and Write block like the net.Conn does and
// return ErrWouldBlock only when a deadline set on it expires.
func NewPlain(conn net.Conn) *Plain {
	return &Plain{conn: conn}
}

func (p *Plain) Handshake() (HandshakeState, error) {
	return Done, nil
}

func (p *Plain) Read(buf []byte) (int, error) {
	n, err := p.conn.Read(buf)
	if err != nil {
		if isWouldBlock(err) {
			return n, ErrWouldBlock
		}
		if err == io.EOF {
			return n, io.EOF
		}
		return n, ErrTransport.Error(err)
	}
	return n, nil
}

func (p *Plain) Write(buf []byte) (int, error) {
	n, err := p.conn.Write(buf)
	if err != nil {
		if isWouldBlock(err) {
			return n, ErrWouldBlock
		}
		return n, ErrTransport.Error(err)
	}
	return n, nil
}

func (p *Plain) Close() error {
	return p.conn.Close()
}

func (p *Plain) FD() (int, error) {
	return connFD(p.conn)
}

func isWouldBlock(err error) bool {
	var ne net.Error
	if nerr, ok := err.(net.Error); ok {
		ne = nerr
		return ne.Timeout()
	}
	return os.IsTimeout(err)
}
