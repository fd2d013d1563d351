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

// Package socks5 implements the client and server sides of the SOCKS5
// three-phase negotiation (spec.md §4.4): greeting, optional user/pass
// auth, and the CONNECT request, plus the big-endian address wire codec
// shared by both sides.
package socks5

import (
	"encoding/binary"
	"io"
	"net"
	"strings"
)

// AddrType is the SOCKS5 ATYP wire byte.
type AddrType byte

const (
	IPv4   AddrType = 0x01
	Domain AddrType = 0x03
	IPv6   AddrType = 0x04
)

// Addr is a decoded/encodable SOCKS5 address: either an IP (v4 or v6) or
// a domain name, plus a port.
type Addr struct {
	Type   AddrType
	IP     net.IP
	Domain string
	Port   uint16
}

// NewAddr builds an Addr from a host string, choosing IPv4/IPv6/Domain by
// inspecting the text: IPv6 literals may be wrapped in "[...]" brackets,
// which are stripped, per spec.md §4.4's "IP conversion helpers strip
// optional [...] brackets on IPv6".
func NewAddr(host string, port uint16) Addr {
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")

	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return Addr{Type: IPv4, IP: ip4, Port: port}
		}
		return Addr{Type: IPv6, IP: ip.To16(), Port: port}
	}

	return Addr{Type: Domain, Domain: host, Port: port}
}

// Encode renders a as ATYP ADDR PORT, per spec.md §4.4's wire format.
func (a Addr) Encode() []byte {
	var out []byte

	switch a.Type {
	case IPv4:
		out = append(out, byte(IPv4))
		out = append(out, a.IP.To4()...)
	case IPv6:
		out = append(out, byte(IPv6))
		out = append(out, a.IP.To16()...)
	case Domain:
		out = append(out, byte(Domain), byte(len(a.Domain)))
		out = append(out, a.Domain...)
	}

	port := make([]byte, 2)
	binary.BigEndian.PutUint16(port, a.Port)
	return append(out, port...)
}

// DecodeAddr parses ATYP ADDR PORT from buf, returning the number of
// bytes consumed. It returns ErrShortRead if buf does not yet contain a
// complete address (the caller should wait for more bytes and retry).
func DecodeAddr(buf []byte) (Addr, int, error) {
	if len(buf) < 1 {
		return Addr{}, 0, ErrShortRead.Error()
	}

	atyp := AddrType(buf[0])
	var addrLen int

	switch atyp {
	case IPv4:
		addrLen = 4
	case IPv6:
		addrLen = 16
	case Domain:
		if len(buf) < 2 {
			return Addr{}, 0, ErrShortRead.Error()
		}
		addrLen = int(buf[1])
	default:
		return Addr{}, 0, ErrUnsupportedAddrType.Error()
	}

	headerLen := 1
	if atyp == Domain {
		headerLen = 2
	}

	need := headerLen + addrLen + 2
	if len(buf) < need {
		return Addr{}, 0, ErrShortRead.Error()
	}

	body := buf[headerLen : headerLen+addrLen]
	port := binary.BigEndian.Uint16(buf[headerLen+addrLen : need])

	a := Addr{Type: atyp, Port: port}
	switch atyp {
	case IPv4, IPv6:
		a.IP = net.IP(append([]byte(nil), body...))
	case Domain:
		a.Domain = string(body)
	}

	return a, need, nil
}

// readExact reads exactly len(buf) bytes, translating EOF/short reads into
// ErrShortRead so callers get a typed, code-bearing error.
func readExact(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return ErrShortRead.Error(err)
	}
	return nil
}

// ReadAddr reads ATYP ADDR PORT directly off r, one wire field at a time,
// rather than requiring the whole message to already be buffered (as
// DecodeAddr does). Used by both Negotiate and Accept once the ATYP byte's
// position in the surrounding message has already been consumed.
func ReadAddr(r io.Reader) (Addr, error) {
	head := make([]byte, 1)
	if err := readExact(r, head); err != nil {
		return Addr{}, err
	}

	atyp := AddrType(head[0])
	var body []byte

	switch atyp {
	case IPv4:
		body = make([]byte, 4)
		if err := readExact(r, body); err != nil {
			return Addr{}, err
		}
	case IPv6:
		body = make([]byte, 16)
		if err := readExact(r, body); err != nil {
			return Addr{}, err
		}
	case Domain:
		l := make([]byte, 1)
		if err := readExact(r, l); err != nil {
			return Addr{}, err
		}
		body = make([]byte, int(l[0]))
		if err := readExact(r, body); err != nil {
			return Addr{}, err
		}
	default:
		return Addr{}, ErrUnsupportedAddrType.Error()
	}

	portBuf := make([]byte, 2)
	if err := readExact(r, portBuf); err != nil {
		return Addr{}, err
	}
	port := binary.BigEndian.Uint16(portBuf)

	a := Addr{Type: atyp, Port: port}
	switch atyp {
	case IPv4, IPv6:
		a.IP = net.IP(body)
	case Domain:
		a.Domain = string(body)
	}
	return a, nil
}

// String renders the host portion (IP or domain) without the port.
func (a Addr) String() string {
	if a.Type == Domain {
		return a.Domain
	}
	if a.IP == nil {
		return ""
	}
	return a.IP.String()
}
