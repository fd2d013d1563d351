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

package server

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/anyks/awh/authn"
	"github.com/anyks/awh/httpmsg"
	"github.com/anyks/awh/partners"
	"github.com/anyks/awh/socks5"
)

// socks5Version is the first byte of every SOCKS5 greeting; anything else
// on the wire is assumed to be an HTTP/1.1 request line instead.
const socks5Version = 0x05

// ProxyMode is the supplemented server feature of spec.md §12: accepted
// connections are inspected for either a SOCKS5 greeting or an HTTP
// CONNECT request, the requested origin is dialed, and bytes are relayed
// both ways via a partners.Map pairing, until either side closes.
type ProxyMode struct {
	Dial       func(network, address string) (net.Conn, error)
	AuthFunc   socks5.AuthFunc
	BasicRealm string
	Partners   *partners.Map
}

// NewProxyMode returns a ProxyMode dialing with net.Dial and no SOCKS5
// authentication (MethodNoAuth only) and no HTTP proxy-auth requirement.
func NewProxyMode() *ProxyMode {
	return &ProxyMode{
		Dial:     net.Dial,
		Partners: partners.New(nil),
	}
}

// Handle services one accepted connection: detect the proxy protocol in
// use, negotiate it, dial the requested origin, and relay bytes until
// either side closes or an error occurs.
func (p *ProxyMode) Handle(conn net.Conn) error {
	defer conn.Close()

	br := bufio.NewReader(conn)
	first, err := br.Peek(1)
	if err != nil {
		return ErrUnknownProxyRequest.Error(err)
	}

	switch {
	case first[0] == socks5Version:
		return p.handleSocks5(conn, br)
	default:
		return p.handleHTTPConnect(conn, br)
	}
}

func (p *ProxyMode) handleSocks5(conn net.Conn, br *bufio.Reader) error {
	rw := struct {
		io.Reader
		io.Writer
	}{br, conn}

	req, err := socks5.Accept(rw, p.AuthFunc)
	if err != nil {
		return err
	}

	upstream, err := p.Dial("tcp", req.Target.String())
	if err != nil {
		_ = socks5.WriteReply(conn, socks5.RepHostUnreachable, socks5.NewAddr("0.0.0.0", 0))
		return err
	}
	defer upstream.Close()

	bound := socks5.NewAddr(localHost(upstream), localPort(upstream))
	if err := socks5.WriteReply(conn, socks5.RepSucceeded, bound); err != nil {
		return err
	}

	return p.relay(br, conn, upstream)
}

func (p *ProxyMode) handleHTTPConnect(conn net.Conn, br *bufio.Reader) error {
	req, err := httpmsg.ReadRequest(br)
	if err != nil {
		return err
	}
	if req.Method != http.MethodConnect {
		return ErrUnknownProxyRequest.Error()
	}

	if p.BasicRealm != "" {
		if !p.checkBasicAuth(req) {
			authErr := ErrProxyAuthRequired.Error()
			resp := httpmsg.NewErrorResponse(http.StatusProxyAuthRequired, authErr)
			if err := resp.Header.Set("Proxy-Authenticate", authn.BasicChallenge(p.BasicRealm)); err != nil {
				return err
			}
			_ = resp.Write(conn)
			return authErr
		}
	}

	upstream, err := p.Dial("tcp", req.Target)
	if err != nil {
		resp := httpmsg.NewResponse(http.StatusBadGateway, "Bad Gateway")
		_ = resp.Write(conn)
		return err
	}
	defer upstream.Close()

	resp := httpmsg.NewResponse(http.StatusOK, "Connection Established")
	if err := resp.Write(conn); err != nil {
		return err
	}

	return p.relay(br, conn, upstream)
}

func (p *ProxyMode) checkBasicAuth(req *httpmsg.Request) bool {
	hdr, ok := req.Header.Get("Proxy-Authorization")
	if !ok {
		return false
	}
	user, pass, err := authn.ParseBasic(hdr)
	if err != nil {
		return false
	}
	return p.AuthFunc != nil && p.AuthFunc(user, pass)
}

// relay pairs the client-facing and upstream connections in Partners and
// copies bytes both ways until one side closes. clientReader must be the
// same bufio.Reader the handshake parsed the request from, so any bytes
// the peer pipelined right after the request (already buffered, no longer
// on the raw socket) are not dropped.
func (p *ProxyMode) relay(clientReader io.Reader, clientWriter net.Conn, upstream net.Conn) error {
	cfd := connFD(clientWriter)
	ufd := connFD(upstream)
	if p.Partners != nil && cfd >= 0 && ufd >= 0 {
		p.Partners.Join(cfd, ufd)
		defer p.Partners.Remove(cfd)
	}

	errCh := make(chan error, 2)
	go func() {
		_, err := io.Copy(upstream, clientReader)
		errCh <- err
	}()
	go func() {
		_, err := io.Copy(clientWriter, upstream)
		errCh <- err
	}()
	return <-errCh
}

func localHost(conn net.Conn) string {
	host, _, _ := net.SplitHostPort(conn.LocalAddr().String())
	return host
}

func localPort(conn net.Conn) uint16 {
	_, port, _ := net.SplitHostPort(conn.LocalAddr().String())
	n, _ := strconv.Atoi(port)
	return uint16(n)
}

// connFD recovers the raw fd from a TCP net.Conn for partners.Map's
// symmetric pairing; returns -1 when unavailable (e.g. in tests using
// net.Pipe, which has no fd).
func connFD(conn net.Conn) int {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return -1
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return -1
	}
	var fd int
	if cerr := raw.Control(func(ptr uintptr) { fd = int(ptr) }); cerr != nil {
		return -1
	}
	return fd
}
