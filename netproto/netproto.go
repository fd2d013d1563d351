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

// Package netproto names the network families the reactor and transport
// layers dial and listen on.
package netproto

// Protocol is the network family passed to net.Dial/net.Listen.
type Protocol string

const (
	TCP  Protocol = "tcp"
	TCP4 Protocol = "tcp4"
	TCP6 Protocol = "tcp6"
)

// Network returns the protocol as the string the net package expects.
func (p Protocol) Network() string {
	if p == "" {
		return string(TCP)
	}
	return string(p)
}

// Valid reports whether p is one of the supported families.
func (p Protocol) Valid() bool {
	switch p {
	case TCP, TCP4, TCP6:
		return true
	default:
		return false
	}
}
