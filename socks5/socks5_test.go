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

package socks5_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/socks5"
)

var _ = Describe("address codec", func() {
	It("round-trips an IPv4 address", func() {
		a := socks5.NewAddr("192.168.1.1", 80)
		decoded, n, err := socks5.DecodeAddr(a.Encode())
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(len(a.Encode())))
		Expect(decoded.IP.String()).To(Equal("192.168.1.1"))
		Expect(decoded.Port).To(Equal(uint16(80)))
	})

	It("round-trips an IPv6 address, stripping brackets", func() {
		a := socks5.NewAddr("[::1]", 443)
		decoded, _, err := socks5.DecodeAddr(a.Encode())
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.IP.String()).To(Equal("::1"))
	})

	It("round-trips a domain name", func() {
		a := socks5.NewAddr("example.com", 8080)
		decoded, _, err := socks5.DecodeAddr(a.Encode())
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.Domain).To(Equal("example.com"))
		Expect(decoded.Port).To(Equal(uint16(8080)))
	})

	It("reports ErrShortRead on a truncated buffer", func() {
		a := socks5.NewAddr("example.com", 8080)
		full := a.Encode()
		_, _, err := socks5.DecodeAddr(full[:len(full)-1])
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("wire encoding", func() {
	It("matches the exact IPv4 CONNECT byte sequence", func() {
		Expect(socks5.BuildGreeting([]socks5.Method{socks5.MethodNoAuth})).
			To(Equal([]byte{0x05, 0x01, 0x00}))
		Expect(socks5.BuildGreetingReply(socks5.MethodNoAuth)).
			To(Equal([]byte{0x05, 0x00}))

		target := socks5.NewAddr("192.168.1.1", 80)
		Expect(socks5.BuildRequest(socks5.CmdConnect, target)).
			To(Equal([]byte{0x05, 0x01, 0x00, 0x01, 0xC0, 0xA8, 0x01, 0x01, 0x00, 0x50}))

		bound := socks5.NewAddr("0.0.0.0", 0)
		Expect(socks5.BuildReply(socks5.RepSucceeded, bound)).
			To(Equal([]byte{0x05, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}))
	})
})

var _ = Describe("client/server negotiation", func() {
	It("completes a no-auth CONNECT end to end", func() {
		clientConn, serverConn := net.Pipe()
		defer clientConn.Close()
		defer serverConn.Close()

		target := socks5.NewAddr("example.com", 443)
		bound := socks5.NewAddr("10.0.0.5", 51000)

		done := make(chan error, 1)
		go func() {
			req, err := socks5.Accept(serverConn, nil)
			if err != nil {
				done <- err
				return
			}
			if req.Target.Domain != "example.com" {
				done <- socks5.ErrInvalidAddr.Error()
				return
			}
			done <- socks5.WriteReply(serverConn, socks5.RepSucceeded, bound)
		}()

		got, err := socks5.Negotiate(clientConn, []socks5.Method{socks5.MethodNoAuth}, nil, target)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.IP.String()).To(Equal("10.0.0.5"))
		Expect(got.Port).To(Equal(uint16(51000)))

		Eventually(done).Should(Receive(BeNil()))
	})

	It("completes a user/pass CONNECT end to end", func() {
		clientConn, serverConn := net.Pipe()
		defer clientConn.Close()
		defer serverConn.Close()

		target := socks5.NewAddr("198.51.100.7", 22)
		bound := socks5.NewAddr("0.0.0.0", 0)
		auth := func(user, pass string) bool { return user == "alice" && pass == "s3cret" }

		done := make(chan error, 1)
		go func() {
			req, err := socks5.Accept(serverConn, auth)
			if err != nil {
				done <- err
				return
			}
			if req.Command != socks5.CmdConnect {
				done <- socks5.ErrUnsupportedCommand.Error()
				return
			}
			done <- socks5.WriteReply(serverConn, socks5.RepSucceeded, bound)
		}()

		creds := &socks5.Credentials{User: "alice", Pass: "s3cret"}
		_, err := socks5.Negotiate(clientConn, []socks5.Method{socks5.MethodUserPass}, creds, target)
		Expect(err).NotTo(HaveOccurred())
		Eventually(done).Should(Receive(BeNil()))
	})

	It("rejects bad credentials", func() {
		clientConn, serverConn := net.Pipe()
		defer clientConn.Close()
		defer serverConn.Close()

		auth := func(user, pass string) bool { return false }

		go func() {
			_, _ = socks5.Accept(serverConn, auth)
		}()

		creds := &socks5.Credentials{User: "eve", Pass: "wrong"}
		_, err := socks5.Negotiate(clientConn, []socks5.Method{socks5.MethodUserPass}, creds, socks5.NewAddr("10.0.0.1", 80))
		Expect(err).To(HaveOccurred())
	})

	It("rejects when the client offers no method the server accepts", func() {
		clientConn, serverConn := net.Pipe()
		defer clientConn.Close()
		defer serverConn.Close()

		auth := func(user, pass string) bool { return true }

		go func() {
			_, _ = socks5.Accept(serverConn, auth)
		}()

		_, err := socks5.Negotiate(clientConn, []socks5.Method{socks5.MethodNoAuth}, nil, socks5.NewAddr("10.0.0.1", 80))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("timing", func() {
	It("does not hang past a reasonable deadline on a live pipe", func() {
		clientConn, serverConn := net.Pipe()
		defer clientConn.Close()
		defer serverConn.Close()

		go func() { _, _ = socks5.Accept(serverConn, nil) }()

		start := time.Now()
		_, err := socks5.Negotiate(clientConn, []socks5.Method{socks5.MethodNoAuth}, nil, socks5.NewAddr("10.0.0.1", 80))
		Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
		_ = err
	})
})
