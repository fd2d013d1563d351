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

package transport

import (
	"crypto/tls"
	"crypto/x509"
	"os"
)

// TLSBuilder assembles a *tls.Config the way certificates.Config does in
// the teacher library, reduced to exactly what a broker's TLS transport
// needs: one or more cert/key pairs, an optional root CA pool, a min/max
// protocol version and an optional client-auth requirement. Anything
// beyond this (cipher suite pinning, curve selection, CRL handling) is
// out of scope per spec.md §1 — TLS is an external, pluggable engine.
type TLSBuilder struct {
	certs      []tls.Certificate
	rootCAs    *x509.CertPool
	clientCAs  *x509.CertPool
	minVersion uint16
	maxVersion uint16
	clientAuth tls.ClientAuthType
	serverName string
}

// NewTLSBuilder returns a builder defaulting to TLS 1.2 minimum, no
// pinned maximum, no client auth.
func NewTLSBuilder() *TLSBuilder {
	return &TLSBuilder{minVersion: tls.VersionTLS12}
}

// AddCertPair loads a PEM cert/key pair from disk and appends it.
func (b *TLSBuilder) AddCertPair(certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return ErrHandshakeFailed.Error(err)
	}
	b.certs = append(b.certs, cert)
	return nil
}

// AddRootCA appends a PEM-encoded CA file to the pool used to verify the
// peer's certificate (client verifying server, or server verifying a
// client when ClientAuth requires it).
func (b *TLSBuilder) AddRootCA(caFile string) error {
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return ErrHandshakeFailed.Error(err)
	}
	if b.rootCAs == nil {
		b.rootCAs = x509.NewCertPool()
	}
	if !b.rootCAs.AppendCertsFromPEM(pem) {
		return ErrHandshakeFailed.Error(os.ErrInvalid)
	}
	return nil
}

// SetVersions pins the acceptable TLS protocol version range.
func (b *TLSBuilder) SetVersions(min, max uint16) {
	b.minVersion = min
	b.maxVersion = max
}

// SetClientAuth sets the server-side client-certificate policy.
func (b *TLSBuilder) SetClientAuth(auth tls.ClientAuthType, clientCAs *x509.CertPool) {
	b.clientAuth = auth
	b.clientCAs = clientCAs
}

// SetServerName sets the SNI/verification name used on the client side.
func (b *TLSBuilder) SetServerName(name string) {
	b.serverName = name
}

// Config materializes the *tls.Config for either a client or server use.
func (b *TLSBuilder) Config() *tls.Config {
	return &tls.Config{
		Certificates: b.certs,
		RootCAs:      b.rootCAs,
		ClientCAs:    b.clientCAs,
		ClientAuth:   b.clientAuth,
		MinVersion:   b.minVersion,
		MaxVersion:   b.maxVersion,
		ServerName:   b.serverName,
	}
}

// TLS is a Transport that drives a TLS handshake atop an already-connected
// plain socket, per spec.md §4.2's "TLS transport drives the TLS state
// machine and may return Pending requesting additional read or write
// readiness."
type TLS struct {
	conn *tls.Conn
}

// NewTLSClient wraps conn as a TLS client using cfg.
func NewTLSClient(p *Plain, cfg *tls.Config) *TLS {
	return &TLS{conn: tls.Client(p.conn, cfg)}
}

// NewTLSServer wraps conn as a TLS server using cfg.
func NewTLSServer(p *Plain, cfg *tls.Config) *TLS {
	return &TLS{conn: tls.Server(p.conn, cfg)}
}

func (t *TLS) Handshake() (HandshakeState, error) {
	err := t.conn.Handshake()
	if err == nil {
		return Done, nil
	}
	if isWouldBlock(err) {
		return Pending, nil
	}
	return Failed, ErrHandshakeFailed.Error(err)
}

func (t *TLS) Read(buf []byte) (int, error) {
	n, err := t.conn.Read(buf)
	if err != nil {
		if isWouldBlock(err) {
			return n, ErrWouldBlock
		}
		return n, ErrTransport.Error(err)
	}
	return n, nil
}

func (t *TLS) Write(buf []byte) (int, error) {
	n, err := t.conn.Write(buf)
	if err != nil {
		if isWouldBlock(err) {
			return n, ErrWouldBlock
		}
		return n, ErrTransport.Error(err)
	}
	return n, nil
}

func (t *TLS) Close() error {
	return t.conn.Close()
}

func (t *TLS) FD() (int, error) {
	return connFD(t.conn)
}
