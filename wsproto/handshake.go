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

// Package wsproto implements the WebSocket opening handshake (RFC 6455
// §4) and the frame layer the broker's application codec switches to once
// the handshake completes.
package wsproto

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/anyks/awh/httpmsg"
)

// guid is the magic value RFC 6455 §1.3 concatenates onto the client key
// before hashing.
const guid = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// GenerateKey returns a fresh base64-encoded 16-byte Sec-WebSocket-Key.
func GenerateKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", ErrHandshakeInvalid.Error(err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// AcceptKey computes Sec-WebSocket-Accept from a client's Sec-WebSocket-Key
// per RFC 6455 §1.3: base64(SHA1(key ++ GUID)).
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + guid))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ClientHandshake holds what the client needs to both build its opening
// request and verify the server's response.
type ClientHandshake struct {
	Key           string
	Subprotocols  []string
	WantDeflate   bool
	MaxWindowBits int // 0 means omit the client_max_window_bits parameter
}

// BuildRequest renders the opening GET request for h against path/host.
func (h *ClientHandshake) BuildRequest(host, path string) (*httpmsg.Request, error) {
	req := httpmsg.NewRequest("GET", path)
	for _, kv := range [][2]string{
		{"Host", host},
		{"Upgrade", "websocket"},
		{"Connection", "Upgrade"},
		{"Sec-WebSocket-Key", h.Key},
		{"Sec-WebSocket-Version", "13"},
	} {
		if err := req.Header.Set(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	if len(h.Subprotocols) > 0 {
		if err := req.Header.Set("Sec-WebSocket-Protocol", strings.Join(h.Subprotocols, ", ")); err != nil {
			return nil, err
		}
	}
	if h.WantDeflate {
		ext := "permessage-deflate"
		if h.MaxWindowBits > 0 {
			ext += "; client_max_window_bits=" + strconv.Itoa(h.MaxWindowBits)
		} else {
			ext += "; client_max_window_bits"
		}
		if err := req.Header.Set("Sec-WebSocket-Extensions", ext); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// VerifyResponse checks the server's handshake response against the key h
// sent, returning the negotiated subprotocol (if any) and whether
// compression was accepted.
func (h *ClientHandshake) VerifyResponse(resp *httpmsg.Response) (subprotocol string, deflate bool, err error) {
	if resp.Status != 101 {
		return "", false, ErrHandshakeInvalid.Error()
	}
	accept, ok := resp.Header.Get("Sec-WebSocket-Accept")
	if !ok || accept != AcceptKey(h.Key) {
		return "", false, ErrHandshakeInvalid.Error()
	}
	subprotocol, _ = resp.Header.Get("Sec-WebSocket-Protocol")
	if ext, ok := resp.Header.Get("Sec-WebSocket-Extensions"); ok {
		deflate = strings.Contains(ext, "permessage-deflate") || strings.Contains(ext, "perframe-deflate")
	}
	return subprotocol, deflate, nil
}

// ServerHandshake negotiates the server side of the opening handshake
// against an already-parsed client request.
type ServerHandshake struct {
	SupportedSubprotocols []string
	AllowDeflate          bool
}

// Negotiate validates req per RFC 6455 §4.2.1 and builds the 101 response,
// picking the first client-offered subprotocol the server supports and
// clamping any requested deflate window-bits parameter to [8, 15].
func (s *ServerHandshake) Negotiate(req *httpmsg.Request) (*httpmsg.Response, error) {
	version, ok := req.Header.Get("Sec-WebSocket-Version")
	if !ok || version != "13" {
		return nil, ErrUnsupportedVersion.Error()
	}
	upgrade, ok := req.Header.Get("Upgrade")
	if !ok || !strings.EqualFold(strings.TrimSpace(upgrade), "websocket") {
		return nil, ErrHandshakeInvalid.Error()
	}
	key, ok := req.Header.Get("Sec-WebSocket-Key")
	if !ok || key == "" {
		return nil, ErrHandshakeInvalid.Error()
	}

	resp := httpmsg.NewResponse(101, "Switching Protocols")
	for _, kv := range [][2]string{
		{"Upgrade", "websocket"},
		{"Connection", "Upgrade"},
		{"Sec-WebSocket-Accept", AcceptKey(key)},
	} {
		if err := resp.Header.Set(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}

	if proto := s.chooseSubprotocol(req); proto != "" {
		if err := resp.Header.Set("Sec-WebSocket-Protocol", proto); err != nil {
			return nil, err
		}
	}

	if s.AllowDeflate {
		if ext, ok := req.Header.Get("Sec-WebSocket-Extensions"); ok && strings.Contains(ext, "permessage-deflate") {
			if accepted := negotiateDeflate(ext); accepted != "" {
				if err := resp.Header.Set("Sec-WebSocket-Extensions", accepted); err != nil {
					return nil, err
				}
			}
		}
	}

	return resp, nil
}

func (s *ServerHandshake) chooseSubprotocol(req *httpmsg.Request) string {
	offered, ok := req.Header.Get("Sec-WebSocket-Protocol")
	if !ok {
		return ""
	}
	for _, want := range strings.Split(offered, ",") {
		want = strings.TrimSpace(want)
		for _, supported := range s.SupportedSubprotocols {
			if want == supported {
				return want
			}
		}
	}
	return ""
}

// negotiateDeflate clamps an offered client_max_window_bits to [8, 15],
// defaulting to 15 when the parameter is present but bare, per spec.md
// §4.6. Returns the accept-side extension header value.
func negotiateDeflate(offered string) string {
	bits := 15
	for _, param := range strings.Split(offered, ";") {
		param = strings.TrimSpace(param)
		if !strings.HasPrefix(param, "client_max_window_bits") {
			continue
		}
		kv := strings.SplitN(param, "=", 2)
		if len(kv) == 2 {
			if n, err := strconv.Atoi(strings.Trim(strings.TrimSpace(kv[1]), "\"")); err == nil {
				bits = clampWindowBits(n)
			}
		}
	}
	return "permessage-deflate; client_max_window_bits=" + strconv.Itoa(bits)
}

func clampWindowBits(n int) int {
	if n < 8 {
		return 8
	}
	if n > 15 {
		return 15
	}
	return n
}
