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

// Package client is the outbound half of spec.md §4.7: resolve, connect,
// optionally tunnel through an HTTP or SOCKS5 proxy, switch the broker
// over to its origin-facing transport, and retry the whole sequence with
// a capped linear backoff on failure. What Open hands back is a broker
// already sitting in AppReady, ready for a reactor.Loop to Watch.
package client

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/anyks/awh/authn"
	"github.com/anyks/awh/broker"
	"github.com/anyks/awh/httpmsg"
	"github.com/anyks/awh/scheme"
	"github.com/anyks/awh/socks5"
	"github.com/anyks/awh/transport"
	"github.com/anyks/awh/urlx"
)

// Dialer is the connect collaborator a Pipeline uses to reach either the
// origin directly or the configured proxy. Defaults to net.Dialer.
type Dialer interface {
	DialContext(network, address string) (net.Conn, error)
}

type netDialer struct {
	d net.Dialer
}

func (n netDialer) DialContext(network, address string) (net.Conn, error) {
	return n.d.Dial(network, address)
}

// Pipeline drives the client half of one Scheme: every Open call resolves,
// connects (retrying per RetryLimit), runs the configured proxy handshake
// if any, and tracks the resulting broker in Registry.
type Pipeline struct {
	Registry   *scheme.Registry
	Dialer     Dialer
	TLS        *transport.TLSBuilder
	Events     scheme.ClientEvents
	RetryLimit int
	RetryBase  time.Duration
	RetryMax   time.Duration
}

// NewPipeline returns a Pipeline with a plain net.Dialer and the retry
// defaults of spec.md §4.7 (3 retries, so up to 4 dial attempts; 1s base,
// 30s cap).
func NewPipeline(reg *scheme.Registry, events scheme.ClientEvents) *Pipeline {
	return &Pipeline{
		Registry:   reg,
		Dialer:     netDialer{},
		Events:     events,
		RetryLimit: 3,
		RetryBase:  time.Second,
		RetryMax:   30 * time.Second,
	}
}

// NewPipelineFromConfig builds a Pipeline from a scheme.ClientConfig (§10.3),
// resolving its target/proxy URLs and TLS material up front so Open never
// has to fail on malformed configuration mid-connect.
func NewPipelineFromConfig(cfg *scheme.ClientConfig, reg *scheme.Registry, events scheme.ClientEvents) (*Pipeline, *urlx.URL, *scheme.ProxyConfig, *scheme.AuthConfig, error) {
	target, err := urlx.Parse(cfg.Target)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	p := NewPipeline(reg, events)
	if cfg.Retry.Limit > 0 {
		p.RetryLimit = cfg.Retry.Limit
	}
	if cfg.Retry.Base > 0 {
		p.RetryBase = time.Duration(cfg.Retry.Base) * time.Millisecond
	}
	if cfg.Retry.Max > 0 {
		p.RetryMax = time.Duration(cfg.Retry.Max) * time.Millisecond
	}

	builder, err := cfg.TLS.Build()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	p.TLS = builder

	var proxy *scheme.ProxyConfig
	if cfg.ProxyURL != "" {
		proxyURL, err := urlx.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		proxy = &scheme.ProxyConfig{URL: proxyURL}
		switch cfg.ProxyType {
		case "socks5":
			proxy.Type = scheme.ProxySocks5
		default:
			proxy.Type = scheme.ProxyHTTP
		}
	}

	var auth *scheme.AuthConfig
	if cfg.AuthScheme != "" && cfg.AuthScheme != "none" {
		auth = &scheme.AuthConfig{User: cfg.AuthUser, Pass: cfg.AuthPass}
		if cfg.AuthScheme == "digest" {
			auth.Scheme = scheme.AuthDigest
		} else {
			auth.Scheme = scheme.AuthBasic
		}
	}

	return p, target, proxy, auth, nil
}

// Backoff computes the delay before retry attempt n (1-based): RetryBase
// times attempt, capped at RetryMax. It reuses hashicorp/go-retryablehttp's
// DefaultBackoff as a pure function; with resp nil and attemptNum 0 that
// returns its min argument capped at max.
func (p *Pipeline) Backoff(attempt int) time.Duration {
	return retryablehttp.DefaultBackoff(p.RetryBase*time.Duration(attempt), p.RetryMax, 0, nil)
}

// Open runs the full resolve/connect/proxy/switchover pipeline against
// target, honoring proxy (nil means direct) and auth (nil means no
// upstream credentials to present at the proxy). The returned broker is
// in AppReady phase with its transport already swapped to the origin
// connection if a proxy was used.
func (p *Pipeline) Open(target *urlx.URL, proxy *scheme.ProxyConfig, auth *scheme.AuthConfig) (*broker.Broker, error) {
	dialAddr := target.HostPort()
	if proxy != nil && proxy.Type != scheme.ProxyNone {
		dialAddr = proxy.URL.HostPort()
	}

	conn, err := p.dialWithRetry(dialAddr)
	if err != nil {
		return nil, err
	}

	pl := transport.NewPlain(conn)
	fd, ferr := pl.FD()
	if ferr != nil {
		_ = conn.Close()
		return nil, ferr
	}

	b := broker.New(fd, broker.ClientToServer, 0)
	if err := b.Transition(broker.Connecting); err != nil {
		_ = conn.Close()
		return nil, err
	}
	b.Transport = pl

	opt, err := p.Registry.Track(b)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	opt.Proxy = proxy
	opt.Auth = auth

	if proxy == nil || proxy.Type == scheme.ProxyNone {
		if err := p.finishDirect(b, conn, target); err != nil {
			p.fail(b, err)
			return nil, err
		}
	} else {
		if err := b.Transition(broker.ProxyHandshake); err != nil {
			p.fail(b, err)
			return nil, err
		}
		if err := p.tunnel(conn, proxy, auth, target); err != nil {
			p.fail(b, err)
			return nil, err
		}
		if err := b.Transition(broker.AppReady); err != nil {
			p.fail(b, err)
			return nil, err
		}
		if err := p.maybeUpgradeTLS(b, conn, target); err != nil {
			p.fail(b, err)
			return nil, err
		}
	}

	opt.Kind = scheme.PhaseApp
	opt.App = &scheme.AppState{}
	opt.Flags.Connected = true
	opt.Flags.Alive = true

	if p.Events != nil {
		p.Events.OnOpen(b.ID())
	}
	return b, nil
}

// finishDirect moves a proxy-less broker straight to AppReady, upgrading
// to TLS first when the origin schema requires it.
func (p *Pipeline) finishDirect(b *broker.Broker, conn net.Conn, target *urlx.URL) error {
	if isEncryptedSchema(target.Schema) {
		tlsConn, err := p.handshakeTLS(conn, target.Host)
		if err != nil {
			return err
		}
		b.SetTransport(tlsConn)
	}
	return b.Transition(broker.AppReady)
}

// maybeUpgradeTLS performs the tunneled-TLS step of spec.md §4.3's
// switchover note: once a proxy CONNECT/SOCKS5 tunnel reaches AppReady,
// a TLS handshake against the origin is layered on top of the same fd if
// the target schema demands it.
func (p *Pipeline) maybeUpgradeTLS(b *broker.Broker, conn net.Conn, target *urlx.URL) error {
	if !isEncryptedSchema(target.Schema) {
		return nil
	}
	tlsConn, err := p.handshakeTLS(conn, target.Host)
	if err != nil {
		return err
	}
	b.SetTransport(tlsConn)
	return nil
}

func isEncryptedSchema(schema string) bool {
	return schema == "https" || schema == "wss"
}

func (p *Pipeline) handshakeTLS(conn net.Conn, serverName string) (transport.Transport, error) {
	builder := p.TLS
	if builder == nil {
		builder = transport.NewTLSBuilder()
	}
	builder.SetServerName(serverName)
	pl := transport.NewPlain(conn)
	t := transport.NewTLSClient(pl, builder.Config())
	for {
		state, err := t.Handshake()
		if err != nil {
			return nil, err
		}
		if state == transport.Done {
			return t, nil
		}
	}
}

// tunnel drives the proxy-specific handshake to completion, leaving conn
// ready to carry the origin's own protocol (or origin TLS) traffic.
func (p *Pipeline) tunnel(conn net.Conn, proxy *scheme.ProxyConfig, auth *scheme.AuthConfig, target *urlx.URL) error {
	switch proxy.Type {
	case scheme.ProxyHTTP:
		return p.connectHTTP(conn, auth, target)
	case scheme.ProxySocks5:
		return p.connectSocks5(conn, auth, target)
	default:
		return ErrUnsupportedProxyType.Error()
	}
}

// connectHTTP issues an HTTP CONNECT request to the proxy, attaching a
// Proxy-Authorization Basic header when auth carries credentials
// (Digest needs a challenge round-trip the source doesn't pre-empt for
// CONNECT, so only Basic is attempted proactively).
func (p *Pipeline) connectHTTP(conn net.Conn, auth *scheme.AuthConfig, target *urlx.URL) error {
	req := httpmsg.NewRequest(http.MethodConnect, target.HostPort())
	if err := req.Header.Set("Host", target.HostPort()); err != nil {
		return err
	}
	if auth != nil && auth.Scheme == scheme.AuthBasic {
		if err := req.Header.Set("Proxy-Authorization", authn.BasicCredentials(auth.User, auth.Pass)); err != nil {
			return err
		}
	}
	if err := req.Write(conn); err != nil {
		return err
	}

	resp, err := httpmsg.ReadResponse(bufio.NewReader(conn))
	if err != nil {
		return err
	}
	if resp.Status != http.StatusOK {
		return ErrProxyRejected.Error()
	}
	return nil
}

func (p *Pipeline) connectSocks5(conn net.Conn, auth *scheme.AuthConfig, target *urlx.URL) error {
	var creds *socks5.Credentials
	if auth != nil && auth.User != "" {
		creds = &socks5.Credentials{User: auth.User, Pass: auth.Pass}
	}

	addr := socks5.NewAddr(target.Host, uint16(target.Port))

	methods := []socks5.Method{socks5.MethodNoAuth}
	if creds != nil {
		methods = []socks5.Method{socks5.MethodUserPass}
	}

	_, err := socks5.Negotiate(conn, methods, creds, addr)
	return err
}

// dialWithRetry dials address up to RetryLimit+1 times, sleeping
// Backoff(attempt) between failures, per spec.md §4.7.
func (p *Pipeline) dialWithRetry(address string) (net.Conn, error) {
	var lastErr error
	limit := p.RetryLimit
	if limit < 0 {
		limit = 0
	}

	for attempt := 0; attempt <= limit; attempt++ {
		if attempt > 0 {
			time.Sleep(p.Backoff(attempt))
		}
		conn, err := p.Dialer.DialContext("tcp", address)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrRetriesExhausted.Error()
	}
	return nil, ErrRetriesExhausted.Error(lastErr)
}

// fail tears a broker down to Closed and reports it through Events, used
// whenever the pipeline cannot bring a broker to AppReady.
func (p *Pipeline) fail(b *broker.Broker, err error) {
	b.Close()
	p.Registry.Untrack(b.ID())
	if p.Events != nil {
		p.Events.OnError(b.ID(), scheme.ProxyError, err.Error())
	}
}

