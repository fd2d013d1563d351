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

package socks5

const Version byte = 0x05

// Method is a SOCKS5 auth method byte (phase 1).
type Method byte

const (
	MethodNoAuth   Method = 0x00
	MethodUserPass Method = 0x02
	MethodReject   Method = 0xFF
)

// Command is the SOCKS5 request command byte (phase 3). Only CONNECT is
// supported, per spec.md §4.4.
type Command byte

const (
	CmdConnect Command = 0x01
)

// Reply is the SOCKS5 REP status byte.
type Reply byte

const (
	RepSucceeded           Reply = 0x00
	RepGeneralFailure      Reply = 0x01
	RepNetworkUnreachable  Reply = 0x03
	RepHostUnreachable     Reply = 0x04
	RepConnectionRefused   Reply = 0x05
	RepCommandNotSupported Reply = 0x07
	RepAddrTypeNotSupported Reply = 0x08
)

// BuildGreeting renders phase 1's client message: 05 NMETHODS METHODS...
func BuildGreeting(methods []Method) []byte {
	out := []byte{Version, byte(len(methods))}
	for _, m := range methods {
		out = append(out, byte(m))
	}
	return out
}

// ParseGreeting parses phase 1's client message, returning the offered
// methods and bytes consumed.
func ParseGreeting(buf []byte) ([]Method, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrShortRead.Error()
	}
	if buf[0] != Version {
		return nil, 0, ErrBadVersion.Error()
	}
	n := int(buf[1])
	if len(buf) < 2+n {
		return nil, 0, ErrShortRead.Error()
	}
	methods := make([]Method, n)
	for i := 0; i < n; i++ {
		methods[i] = Method(buf[2+i])
	}
	return methods, 2 + n, nil
}

// BuildGreetingReply renders phase 1's server reply: 05 METHOD.
func BuildGreetingReply(m Method) []byte {
	return []byte{Version, byte(m)}
}

// ParseGreetingReply parses phase 1's server reply.
func ParseGreetingReply(buf []byte) (Method, int, error) {
	if len(buf) < 2 {
		return 0, 0, ErrShortRead.Error()
	}
	if buf[0] != Version {
		return 0, 0, ErrBadVersion.Error()
	}
	return Method(buf[1]), 2, nil
}

// BuildAuth renders phase 2's client message: 01 ULEN USER PLEN PASS.
func BuildAuth(user, pass string) []byte {
	out := []byte{0x01, byte(len(user))}
	out = append(out, user...)
	out = append(out, byte(len(pass)))
	out = append(out, pass...)
	return out
}

// ParseAuth parses phase 2's client message.
func ParseAuth(buf []byte) (user, pass string, consumed int, err error) {
	if len(buf) < 2 {
		return "", "", 0, ErrShortRead.Error()
	}
	ulen := int(buf[1])
	if len(buf) < 2+ulen+1 {
		return "", "", 0, ErrShortRead.Error()
	}
	user = string(buf[2 : 2+ulen])
	plen := int(buf[2+ulen])
	need := 2 + ulen + 1 + plen
	if len(buf) < need {
		return "", "", 0, ErrShortRead.Error()
	}
	pass = string(buf[2+ulen+1 : need])
	return user, pass, need, nil
}

// BuildAuthReply renders phase 2's server reply: 01 STATUS.
func BuildAuthReply(ok bool) []byte {
	status := byte(0x00)
	if !ok {
		status = 0x01
	}
	return []byte{0x01, status}
}

// ParseAuthReply parses phase 2's server reply.
func ParseAuthReply(buf []byte) (ok bool, consumed int, err error) {
	if len(buf) < 2 {
		return false, 0, ErrShortRead.Error()
	}
	return buf[1] == 0x00, 2, nil
}

// BuildRequest renders phase 3's client message: 05 CMD 00 ATYP ADDR PORT.
func BuildRequest(cmd Command, addr Addr) []byte {
	out := []byte{Version, byte(cmd), 0x00}
	return append(out, addr.Encode()...)
}

// ParseRequest parses phase 3's client message. Only CmdConnect is
// accepted; any other command yields ErrUnsupportedCommand.
func ParseRequest(buf []byte) (cmd Command, addr Addr, consumed int, err error) {
	if len(buf) < 4 {
		return 0, Addr{}, 0, ErrShortRead.Error()
	}
	if buf[0] != Version {
		return 0, Addr{}, 0, ErrBadVersion.Error()
	}
	cmd = Command(buf[1])
	a, n, aerr := DecodeAddr(buf[3:])
	if aerr != nil {
		return 0, Addr{}, 0, aerr
	}
	if cmd != CmdConnect {
		return cmd, a, 3 + n, ErrUnsupportedCommand.Error()
	}
	return cmd, a, 3 + n, nil
}

// BuildReply renders phase 3's server reply: 05 REP 00 ATYP BND.ADDR BND.PORT.
func BuildReply(rep Reply, bound Addr) []byte {
	out := []byte{Version, byte(rep), 0x00}
	return append(out, bound.Encode()...)
}

// ParseReply parses phase 3's server reply.
func ParseReply(buf []byte) (rep Reply, bound Addr, consumed int, err error) {
	if len(buf) < 4 {
		return 0, Addr{}, 0, ErrShortRead.Error()
	}
	if buf[0] != Version {
		return 0, Addr{}, 0, ErrBadVersion.Error()
	}
	rep = Reply(buf[1])
	a, n, aerr := DecodeAddr(buf[3:])
	if aerr != nil {
		return 0, Addr{}, 0, aerr
	}
	return rep, a, 3 + n, nil
}
