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

package broker

import "github.com/anyks/awh/errors"

// Kind is the stable error taxonomy of spec.md §7, carried as a tagged
// variant alongside the numeric CodeError so callers can switch on
// meaning without depending on exact codes.
type Kind int

const (
	KindTransportError Kind = iota
	KindHandshakeInvalid
	KindAuthRequired
	KindAuthFailed
	KindProxyError
	KindTimeout
	KindPeerClosed
	KindProtocolError
	KindResourceExhausted
)

func (k Kind) String() string {
	switch k {
	case KindTransportError:
		return "TransportError"
	case KindHandshakeInvalid:
		return "HandshakeInvalid"
	case KindAuthRequired:
		return "AuthRequired"
	case KindAuthFailed:
		return "AuthFailed"
	case KindProxyError:
		return "ProxyError"
	case KindTimeout:
		return "Timeout"
	case KindPeerClosed:
		return "PeerClosed"
	case KindProtocolError:
		return "ProtocolError"
	case KindResourceExhausted:
		return "ResourceExhausted"
	default:
		return "Unknown"
	}
}

const (
	ErrInvalidState errors.CodeError = errors.MinPkgBroker + iota
	ErrClosed
	ErrFDInUse
)

func init() {
	errors.RegisterIdFctMessage(ErrInvalidState, func(code errors.CodeError) string {
		switch code {
		case ErrInvalidState:
			return "broker: operation invalid in current phase"
		case ErrClosed:
			return "broker: use of closed broker"
		case ErrFDInUse:
			return "broker: fd already owned by a live broker"
		default:
			return ""
		}
	})
}
