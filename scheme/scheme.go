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

// Package scheme holds the logical grouping a set of brokers belongs to
// (§3 Scheme): a client scheme driving one outbound endpoint, or a server
// scheme driving a listener and its accepted brokers. It owns brokers by
// id rather than threading raw pointers in both directions (§9 back-
// pointers note), and models each broker's protocol sub-object as a
// tagged variant keyed by PhaseKind (§9 protocol sub-objects note) instead
// of co-locating every optional codec unconditionally.
package scheme

import (
	"sync"
	"time"

	"github.com/anyks/awh/authn"
	"github.com/anyks/awh/broker"
	"github.com/anyks/awh/httpmsg"
	"github.com/anyks/awh/urlx"
	"github.com/anyks/awh/wsproto"
)

// ProxyType selects how the client pipeline reaches its origin.
type ProxyType int

const (
	ProxyNone ProxyType = iota
	ProxyHTTP
	ProxySocks5
)

// ProxyConfig describes a configured upstream proxy.
type ProxyConfig struct {
	Type ProxyType
	URL  *urlx.URL
}

// AuthScheme selects the HTTP auth engine a connection uses.
type AuthScheme int

const (
	AuthNone AuthScheme = iota
	AuthBasic
	AuthDigest
)

// AuthConfig describes the auth engine and credentials a scheme presents.
type AuthConfig struct {
	Scheme    AuthScheme
	Algorithm authn.Algorithm
	User      string
	Pass      string
}

// Flags mirrors the source's dual-role per-broker flags, kept as named
// booleans instead of bit tricks so each has an unambiguous meaning (§9
// "removes the ambiguous dual-role flags" note).
type Flags struct {
	Locked         bool
	Connected      bool
	Stopped        bool
	Alive          bool
	CloseRequested bool
	Crypt          bool
}

// PhaseKind tags which protocol sub-object Options currently holds.
type PhaseKind int

const (
	PhaseConnecting PhaseKind = iota
	PhaseSocks5
	PhaseHTTPConnect
	PhaseApp
)

// Socks5State is the per-broker SOCKS5 client/server negotiation state
// while PhaseKind == PhaseSocks5.
type Socks5State struct {
	Target socksAddr
}

// socksAddr avoids importing the socks5 package just for its Addr type in
// the common case where no SOCKS5 phase is active; client/server fill this
// in from socks5.Addr when needed.
type socksAddr struct {
	Host string
	Port uint16
}

// ConnectState is the per-broker HTTP CONNECT tunnel state while
// PhaseKind == PhaseHTTPConnect.
type ConnectState struct {
	Request *httpmsg.Request
}

// AppState is the per-broker application codec state while
// PhaseKind == PhaseApp: either plain HTTP or, once upgraded, WebSocket
// framing plus its negotiated compression.
type AppState struct {
	IsWebSocket  bool
	Subprotocol  string
	DeflateOn    bool
	ClientHS     *wsproto.ClientHandshake
	PendingFrame []byte
}

// Options is the per-broker bundle a Scheme keys by broker id: the active
// phase's sub-object, byte counters, and idle/ping bookkeeping.
type Options struct {
	Kind    PhaseKind
	Socks5  *Socks5State
	Connect *ConnectState
	App     *AppState

	Flags Flags

	BytesIn, BytesOut uint64
	PingAt            time.Time

	Proxy *ProxyConfig
	Auth  *AuthConfig
}

// NewOptions returns an Options starting in PhaseConnecting.
func NewOptions() *Options {
	return &Options{Kind: PhaseConnecting}
}

// Registry tracks brokers and their Options by broker id, replacing the
// raw-pointer back-references the source threads in both directions.
type Registry struct {
	mu      sync.RWMutex
	brokers map[broker.ID]*broker.Broker
	options map[broker.ID]*Options
}

// NewRegistry returns an empty broker registry.
func NewRegistry() *Registry {
	return &Registry{
		brokers: make(map[broker.ID]*broker.Broker),
		options: make(map[broker.ID]*Options),
	}
}

// Track registers b under its own id with a freshly initialized Options.
func (r *Registry) Track(b *broker.Broker) (*Options, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.brokers[b.ID()]; exists {
		return nil, ErrBrokerAlreadyTracked.Error()
	}
	opt := NewOptions()
	r.brokers[b.ID()] = b
	r.options[b.ID()] = opt
	return opt, nil
}

// Get returns the broker and its Options for id.
func (r *Registry) Get(id broker.ID) (*broker.Broker, *Options, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.brokers[id]
	if !ok {
		return nil, nil, ErrUnknownBroker.Error()
	}
	return b, r.options[id], nil
}

// Untrack removes id from the registry. It does not close the broker —
// callers that own the close decision call broker.Close() themselves.
func (r *Registry) Untrack(id broker.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.brokers, id)
	delete(r.options, id)
}

// Len reports how many brokers are currently tracked.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.brokers)
}

// Each calls fn for every tracked (broker, Options) pair. fn must not call
// back into Track/Untrack on the same Registry.
func (r *Registry) Each(fn func(*broker.Broker, *Options)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, b := range r.brokers {
		fn(b, r.options[id])
	}
}
