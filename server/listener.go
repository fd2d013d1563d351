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

// Package server is the inbound half of spec.md §3/§4.7's supplemented
// listening scheme: an accept loop with an admission hook and a
// max_connections gate (§9 "dynamic callback registry" and §12's
// supplemented proxy-mode relay), handing every accepted connection to a
// per-connection session.
package server

import (
	"net"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/anyks/awh/broker"
	"github.com/anyks/awh/logx"
	"github.com/anyks/awh/netiface"
	"github.com/anyks/awh/scheme"
	"github.com/anyks/awh/transport"
)

// Listener drives one accept loop: every inbound net.Conn is admitted
// through Events.OnAccept, gated by MaxConnections, wrapped in a broker
// tracked under Registry, and handed to Handle.
type Listener struct {
	Registry       *scheme.Registry
	Events         scheme.ServerEvents
	Log            logx.Logger
	MaxConnections int64
	TLS            *transport.TLSBuilder

	ln  net.Listener
	sem *semaphore.Weighted
}

// Listen opens a TCP listener on addr and prepares its admission gate.
func Listen(addr string, maxConnections int64) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ErrListenFailed.Error(err)
	}
	return &Listener{
		ln:             ln,
		MaxConnections: maxConnections,
		sem:            semaphore.NewWeighted(maxConnections),
	}, nil
}

// ListenFromConfig opens a Listener from a scheme.ServerConfig (§10.3),
// and, when cfg.ProxyMode is set, a ready-to-run ProxyMode for the
// supplemented HTTP/SOCKS5 relay feature (§12) with its TLS material
// already resolved.
func ListenFromConfig(cfg *scheme.ServerConfig) (*Listener, *ProxyMode, error) {
	ln, err := Listen(cfg.Listen, cfg.MaxConnections)
	if err != nil {
		return nil, nil, err
	}

	builder, err := cfg.TLS.Build()
	if err != nil {
		_ = ln.Close()
		return nil, nil, err
	}
	ln.TLS = builder

	var pm *ProxyMode
	if cfg.ProxyMode {
		pm = NewProxyMode()
		pm.BasicRealm = cfg.BasicRealm
	}
	return ln, pm, nil
}

// Addr returns the bound listener address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Serve accepts connections until the listener is closed, invoking handle
// for each one that clears admission. Serve blocks; run it in its own
// goroutine.
func (l *Listener) Serve(handle func(conn net.Conn, b *broker.Broker, opt *scheme.Options)) error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return err
		}

		if !l.sem.TryAcquire(1) {
			l.logf("server: rejecting connection, max_connections reached")
			_ = conn.Close()
			continue
		}

		go func() {
			defer l.sem.Release(1)

			b, opt, err := l.admit(conn)
			if err != nil {
				_ = conn.Close()
				return
			}
			defer l.Registry.Untrack(b.ID())
			handle(conn, b, opt)
		}()
	}
}

// admit runs the on_accept hook (consulting netiface.LocalAddrs so a
// handler can tell a loopback-originated connection from a remote one) and
// any configured TLS handshake, then tracks a ServerAccepted broker for
// conn. Deliberately run off the accept loop (from Serve's per-connection
// goroutine): a slow or malicious peer here must never stall new Accepts.
func (l *Listener) admit(conn net.Conn) (*broker.Broker, *scheme.Options, error) {
	host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	ip := net.ParseIP(host)

	if l.Events != nil {
		local, _ := netiface.LocalAddrs()
		mac := ""
		if ip != nil && netiface.HasIP(local, ip) {
			mac = "local"
		}
		if !l.Events.OnAccept(host, mac) {
			return nil, nil, ErrAdmissionRejected.Error()
		}
	}

	pl := transport.NewPlain(conn)
	fd, ferr := pl.FD()
	if ferr != nil {
		return nil, nil, ferr
	}

	b := broker.New(fd, broker.ServerAccepted, 0)
	b.Peer = broker.PeerAddr{IP: ip, Family: family(conn)}
	b.Transport = pl
	if err := b.Transition(broker.Connecting); err != nil {
		return nil, nil, err
	}

	if l.TLS != nil {
		t := transport.NewTLSServer(pl, l.TLS.Config())
		for {
			state, err := t.Handshake()
			if err != nil {
				return nil, nil, err
			}
			if state == transport.Done {
				break
			}
		}
		b.SetTransport(t)
	}

	if err := b.Transition(broker.AppReady); err != nil {
		return nil, nil, err
	}

	opt, err := l.Registry.Track(b)
	if err != nil {
		return nil, nil, err
	}
	opt.Kind = scheme.PhaseApp
	opt.App = &scheme.AppState{}
	opt.Flags.Connected = true
	opt.Flags.Alive = true

	if l.Events != nil {
		l.Events.OnOpen(b.ID())
	}
	return b, opt, nil
}

func family(conn net.Conn) string {
	if strings.Contains(conn.RemoteAddr().String(), "]:") {
		return "tcp6"
	}
	return "tcp4"
}

func (l *Listener) logf(msg string) {
	if l.Log == nil {
		return
	}
	l.Log.Warn(msg)
}
