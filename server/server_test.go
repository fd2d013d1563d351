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

package server_test

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anyks/awh/broker"
	"github.com/anyks/awh/httpmsg"
	"github.com/anyks/awh/partners"
	"github.com/anyks/awh/scheme"
	"github.com/anyks/awh/server"
	"github.com/anyks/awh/socks5"
)

type fixedEvents struct {
	scheme.NoopEvents
	allow bool
}

func (f fixedEvents) OnAccept(ip, mac string) bool { return f.allow }

var _ = Describe("Listener", func() {
	It("admits a connection and tracks a broker in AppReady", func() {
		reg := scheme.NewRegistry()
		ln, err := server.Listen("127.0.0.1:0", 4)
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()
		ln.Registry = reg

		done := make(chan *broker.Broker, 1)
		go func() {
			_ = ln.Serve(func(conn net.Conn, b *broker.Broker, opt *scheme.Options) {
				done <- b
				conn.Close()
			})
		}()

		conn, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		var b *broker.Broker
		Eventually(done, time.Second).Should(Receive(&b))
		Expect(b.Phase()).To(Equal(broker.AppReady))
	})

	It("rejects admission when OnAccept returns false", func() {
		reg := scheme.NewRegistry()
		ln, err := server.Listen("127.0.0.1:0", 4)
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()
		ln.Registry = reg
		ln.Events = fixedEvents{allow: false}

		handled := make(chan struct{}, 1)
		go func() {
			_ = ln.Serve(func(conn net.Conn, b *broker.Broker, opt *scheme.Options) {
				handled <- struct{}{}
			})
		}()

		conn, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		buf := make([]byte, 1)
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, rerr := conn.Read(buf)
		Expect(rerr).To(HaveOccurred())
		Consistently(handled, 100*time.Millisecond).ShouldNot(Receive())
		Expect(reg.Len()).To(Equal(0))
	})

	It("rejects a second connection once max_connections (1) is reached", func() {
		reg := scheme.NewRegistry()
		ln, err := server.Listen("127.0.0.1:0", 1)
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()
		ln.Registry = reg

		release := make(chan struct{})
		go func() {
			_ = ln.Serve(func(conn net.Conn, b *broker.Broker, opt *scheme.Options) {
				<-release
				conn.Close()
			})
		}()

		first, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		defer first.Close()

		time.Sleep(50 * time.Millisecond)

		second, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		defer second.Close()

		buf := make([]byte, 1)
		second.SetReadDeadline(time.Now().Add(time.Second))
		_, rerr := second.Read(buf)
		Expect(rerr).To(HaveOccurred())

		close(release)
	})
})

var _ = Describe("ListenFromConfig", func() {
	It("opens a listener and a ProxyMode from a scheme.ServerConfig", func() {
		cfg := &scheme.ServerConfig{
			Listen:         "127.0.0.1:0",
			MaxConnections: 8,
			ProxyMode:      true,
			BasicRealm:     "proxy",
		}

		ln, pm, err := server.ListenFromConfig(cfg)
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()

		Expect(pm).NotTo(BeNil())
		Expect(pm.BasicRealm).To(Equal("proxy"))
		Expect(ln.Addr()).NotTo(BeNil())
	})
})

var _ = Describe("ProxyMode", func() {
	It("relays bytes both ways through an HTTP CONNECT tunnel", func() {
		front, back := net.Pipe()
		upClient, upServer := net.Pipe()

		p := server.NewProxyMode()
		p.Dial = func(network, address string) (net.Conn, error) { return upClient, nil }

		go func() { _ = p.Handle(back) }()

		req := httpmsg.NewRequest(http.MethodConnect, "origin.internal:443")
		Expect(req.Write(front)).To(Succeed())

		resp, err := httpmsg.ReadResponse(bufio.NewReader(front))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(http.StatusOK))

		go func() {
			buf := make([]byte, 5)
			n, _ := io.ReadFull(upServer, buf)
			Expect(string(buf[:n])).To(Equal("hello"))
			_, _ = upServer.Write([]byte("world"))
		}()

		_, err = front.Write([]byte("hello"))
		Expect(err).NotTo(HaveOccurred())

		reply := make([]byte, 5)
		_, err = io.ReadFull(front, reply)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(reply)).To(Equal("world"))
	})

	It("relays bytes both ways through a SOCKS5 CONNECT tunnel", func() {
		front, back := net.Pipe()
		upClient, upServer := net.Pipe()

		p := server.NewProxyMode()
		p.Partners = partners.New(nil)
		p.Dial = func(network, address string) (net.Conn, error) { return upClient, nil }

		go func() { _ = p.Handle(back) }()

		addr := socks5.NewAddr("10.0.0.5", 443)
		Expect(front.SetDeadline(time.Time{})).To(Succeed())
		_, err := front.Write(socks5.BuildGreeting([]socks5.Method{socks5.MethodNoAuth}))
		Expect(err).NotTo(HaveOccurred())

		greetReply := make([]byte, 2)
		_, err = io.ReadFull(front, greetReply)
		Expect(err).NotTo(HaveOccurred())
		method, _, err := socks5.ParseGreetingReply(greetReply)
		Expect(err).NotTo(HaveOccurred())
		Expect(method).To(Equal(socks5.MethodNoAuth))

		_, err = front.Write(socks5.BuildRequest(socks5.CmdConnect, addr))
		Expect(err).NotTo(HaveOccurred())

		replyHead := make([]byte, 3)
		_, err = io.ReadFull(front, replyHead)
		Expect(err).NotTo(HaveOccurred())
		Expect(replyHead[1]).To(Equal(byte(socks5.RepSucceeded)))

		boundAddr, err := socks5.ReadAddr(front)
		Expect(err).NotTo(HaveOccurred())
		_ = boundAddr

		go func() {
			buf := make([]byte, 4)
			n, _ := io.ReadFull(upServer, buf)
			Expect(string(buf[:n])).To(Equal("ping"))
			_, _ = upServer.Write([]byte("pong"))
		}()

		_, err = front.Write([]byte("ping"))
		Expect(err).NotTo(HaveOccurred())

		reply := make([]byte, 4)
		_, err = io.ReadFull(front, reply)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(reply)).To(Equal("pong"))
	})
})
