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

package scheme

import "github.com/anyks/awh/broker"

// ErrorKind is the stable error taxonomy callbacks receive (§7), kept
// independent from the broker package's own Kind so scheme users never
// need to import broker just to inspect an error kind.
type ErrorKind int

const (
	TransportError ErrorKind = iota
	HandshakeInvalid
	AuthRequired
	AuthFailed
	ProxyError
	Timeout
	PeerClosed
	ProtocolError
	ResourceExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case TransportError:
		return "TransportError"
	case HandshakeInvalid:
		return "HandshakeInvalid"
	case AuthRequired:
		return "AuthRequired"
	case AuthFailed:
		return "AuthFailed"
	case ProxyError:
		return "ProxyError"
	case Timeout:
		return "Timeout"
	case PeerClosed:
		return "PeerClosed"
	case ProtocolError:
		return "ProtocolError"
	case ResourceExhausted:
		return "ResourceExhausted"
	default:
		return "Unknown"
	}
}

// ClientEvents is the typed callback set a client pipeline user implements,
// replacing the source's runtime name-keyed std::function registry (§9
// dynamic callback registry note) with a compiler-checked interface.
type ClientEvents interface {
	OnOpen(id broker.ID)
	OnClose(id broker.ID)
	OnError(id broker.ID, kind ErrorKind, msg string)
	OnPong(id broker.ID, msg []byte)
	OnMessage(id broker.ID, data []byte, isText bool)
}

// ServerEvents extends ClientEvents with the accept-time admission hook
// only a listening scheme needs.
type ServerEvents interface {
	ClientEvents
	OnAccept(ip string, mac string) bool
}

// NoopEvents is a ClientEvents/ServerEvents implementation that does
// nothing, useful as an embeddable base for callers who only care about a
// subset of callbacks.
type NoopEvents struct{}

func (NoopEvents) OnOpen(broker.ID)                       {}
func (NoopEvents) OnClose(broker.ID)                      {}
func (NoopEvents) OnError(broker.ID, ErrorKind, string)    {}
func (NoopEvents) OnPong(broker.ID, []byte)                {}
func (NoopEvents) OnMessage(broker.ID, []byte, bool)       {}
func (NoopEvents) OnAccept(string, string) bool            { return true }
